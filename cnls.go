package cnls

import "github.com/jward/cnls/internal/store"

// ConstructKind identifies the source construct a class token was extracted
// from.
type ConstructKind int

const (
	// ConstructFnCall marks tokens found in call-expression arguments.
	ConstructFnCall ConstructKind = iota
	// ConstructAttr marks tokens found in JSX attribute values.
	ConstructAttr
	// ConstructSelector marks class names declared by CSS class selectors,
	// produced by the stylesheet scanner rather than a configured scope.
	ConstructSelector
)

// String returns the stable name the store uses for the kind.
func (k ConstructKind) String() string {
	switch k {
	case ConstructFnCall:
		return "fn"
	case ConstructAttr:
		return "att"
	case ConstructSelector:
		return "selector"
	}
	return "unknown"
}

// Range is a source position span: 0-based lines, 0-based byte columns,
// start inclusive and end exclusive.
type Range struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Contains reports whether the position (line, col) falls inside the range.
func (r Range) Contains(line, col int) bool {
	if line < r.StartLine || line > r.EndLine {
		return false
	}
	if line == r.StartLine && col < r.StartCol {
		return false
	}
	if line == r.EndLine && col >= r.EndCol {
		return false
	}
	return true
}

// Location is a range inside a specific document.
type Location struct {
	URI   string
	Range Range
}

// Token is one extracted class name: a single whitespace-delimited token out
// of a matched literal, with its precise sub-range in the source.
type Token struct {
	URI         string
	Range       Range
	Literal     string
	Kind        ConstructKind
	MatchedRule string // declaration form of the pattern that matched, "" for selectors
}

// Occurrence is re-exported from the internal store: one indexed class token
// as seen by cross-document queries.
type Occurrence = store.Occurrence
