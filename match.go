package cnls

import (
	"context"
	"fmt"
)

// variantFor maps a construct kind to the scope variant that can match it.
// Selector tokens come from the stylesheet scanner and never pass through
// scope matching.
func variantFor(kind ConstructKind) (Variant, bool) {
	switch kind {
	case ConstructFnCall:
		return VariantFnCall, true
	case ConstructAttr:
		return VariantAttr, true
	case ConstructSelector:
		return 0, false
	}
	return 0, false
}

// ExtractTokens scans src under the given dialect and returns the class
// tokens whose constructs match cfg, in source order. Constructs matching no
// rule contribute nothing; a construct matching several rules is still
// tokenized exactly once.
func ExtractTokens(ctx context.Context, uri string, src []byte, dialect Dialect, cfg *Config) ([]Token, error) {
	scanner, err := NewScanner(ctx, src, dialect)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", uri, err)
	}
	defer scanner.Close()

	var tokens []Token
	for cand := range scanner.Candidates() {
		variant, ok := variantFor(cand.Kind)
		if !ok {
			continue
		}
		rule, ok := cfg.Match(variant, cand.Name)
		if !ok {
			continue
		}
		for _, lit := range cand.Literals {
			tokens = append(tokens, splitLiteral(uri, lit, cand.Kind, rule)...)
		}
	}
	return tokens, nil
}

// splitLiteral tokenizes a matched literal on ASCII whitespace. Each class
// name becomes its own token with a sub-range computed by walking the
// literal's bytes from its start position, so a literal holding N names
// yields N tokens with disjoint, ordered ranges.
func splitLiteral(uri string, lit Literal, kind ConstructKind, rule string) []Token {
	var (
		tokens     []Token
		line       = lit.Range.StartLine
		col        = lit.Range.StartCol
		start      = -1 // byte offset of the open token, -1 when none
		startLine  int
		startCol   int
	)

	flush := func(end int) {
		if start < 0 {
			return
		}
		tokens = append(tokens, Token{
			URI:     uri,
			Literal: lit.Value[start:end],
			Kind:    kind,
			Range: Range{
				StartLine: startLine,
				StartCol:  startCol,
				EndLine:   line,
				EndCol:    col,
			},
			MatchedRule: rule,
		})
		start = -1
	}

	for i := 0; i < len(lit.Value); i++ {
		b := lit.Value[i]
		if asciiSpace(b) {
			flush(i)
		} else if start < 0 {
			start, startLine, startCol = i, line, col
		}
		if b == '\n' {
			line++
			col = 0
		} else {
			col++
		}
	}
	flush(len(lit.Value))
	return tokens
}

func asciiSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
