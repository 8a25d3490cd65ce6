package cnls

// HoverResult describes the class token under the cursor together with its
// other occurrences across the index. It carries enough for a richer layer
// (say, one that renders the declaring CSS rule) to build the final hover
// text.
type HoverResult struct {
	Literal     string
	Range       Range
	Kind        ConstructKind
	Count       int          // occurrences across the index, including this one
	Occurrences []Occurrence // ordered by URI then position
}

// Hover finds the class token containing the given position in uri's
// current snapshot. Returns (nil, nil) when no token is under the cursor —
// a miss is an empty result, not an error. Hover never triggers a scan.
func (e *Engine) Hover(uri string, line, col int) (*HoverResult, error) {
	token, ok := e.index.TokenAt(uri, line, col)
	if !ok {
		return nil, nil
	}

	occs, err := e.index.Occurrences(token.Literal)
	if err != nil {
		return nil, err
	}
	return &HoverResult{
		Literal:     token.Literal,
		Range:       token.Range,
		Kind:        token.Kind,
		Count:       len(occs),
		Occurrences: occs,
	}, nil
}

// Definition resolves the class token at the given position to every other
// occurrence of the same literal across the index, ordered by URI then
// position. Every occurrence is a peer; there is no distinguished
// declaration. The queried occurrence itself is excluded, and a literal
// with no other occurrences yields an empty result.
func (e *Engine) Definition(uri string, line, col int) ([]Location, error) {
	token, ok := e.index.TokenAt(uri, line, col)
	if !ok {
		return nil, nil
	}

	occs, err := e.index.Occurrences(token.Literal)
	if err != nil {
		return nil, err
	}

	var locs []Location
	for _, o := range occs {
		r := Range{StartLine: o.StartLine, StartCol: o.StartCol, EndLine: o.EndLine, EndCol: o.EndCol}
		if o.URI == uri && r == token.Range {
			continue // the queried occurrence itself
		}
		locs = append(locs, Location{URI: o.URI, Range: r})
	}
	return locs, nil
}
