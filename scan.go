package cnls

import (
	"context"
	"fmt"
	"iter"

	sitter "github.com/smacker/go-tree-sitter"
)

// Literal is one static string literal inside a candidate construct. Value is
// the raw source text between the quotes; Range spans that text, so token
// sub-ranges computed from byte offsets line up with the document.
type Literal struct {
	Value string
	Range Range
}

// Candidate is a scope-matchable construct found in a document: a call
// expression or a JSX attribute, with its string-literal values. Constructs
// whose values are not static string literals (template literals, variables,
// mixed concatenation) are not reported.
type Candidate struct {
	Kind     ConstructKind
	Name     string // callee name or attribute name
	Literals []Literal
}

// Scanner parses one document and enumerates its candidate constructs.
// Parsing is best-effort: tree-sitter recovers around syntax errors, so a
// malformed region never discards constructs that parsed elsewhere.
type Scanner struct {
	tree *sitter.Tree
	src  []byte
	used bool
}

// NewScanner parses src under the grammar for dialect. The caller must Close
// the scanner to release the parse tree.
func NewScanner(ctx context.Context, src []byte, dialect Dialect) (*Scanner, error) {
	grammar, ok := GrammarForDialect(dialect)
	if !ok {
		return nil, fmt.Errorf("scan: unsupported dialect %q", dialect)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("scan: parse: %w", err)
	}
	return &Scanner{tree: tree, src: src}, nil
}

// Close releases the parse tree.
func (s *Scanner) Close() {
	if s.tree != nil {
		s.tree.Close()
		s.tree = nil
	}
}

// Candidates returns the scanner's constructs in source order as a lazy,
// finite, single-pass sequence. A second call yields nothing; re-scan the
// document to enumerate again.
func (s *Scanner) Candidates() iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		if s.used || s.tree == nil {
			return
		}
		s.used = true
		walk(s.tree.RootNode(), s.src, yield)
	}
}

// walk visits nodes in preorder, emitting candidates as it finds them. It
// descends into every node, so calls nested inside matched arguments are
// still found; a nested call's literals belong to the nested call only.
// Returns false once yield stops the iteration.
func walk(n *sitter.Node, src []byte, yield func(Candidate) bool) bool {
	switch n.Type() {
	case "call_expression":
		if c, ok := callCandidate(n, src); ok {
			if !yield(c) {
				return false
			}
		}
	case "jsx_attribute":
		if c, ok := attrCandidate(n, src); ok {
			if !yield(c) {
				return false
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if !walk(n.NamedChild(i), src, yield) {
			return false
		}
	}
	return true
}

// callCandidate builds a candidate from a call expression. The callee name is
// the simple identifier or, for member access, the rightmost property.
func callCandidate(n *sitter.Node, src []byte) (Candidate, bool) {
	callee := n.ChildByFieldName("function")
	if callee == nil {
		return Candidate{}, false
	}

	var name string
	switch callee.Type() {
	case "identifier":
		name = callee.Content(src)
	case "member_expression":
		prop := callee.ChildByFieldName("property")
		if prop == nil || prop.Type() != "property_identifier" {
			return Candidate{}, false
		}
		name = prop.Content(src)
	default:
		return Candidate{}, false
	}

	args := n.ChildByFieldName("arguments")
	if args == nil {
		return Candidate{}, false
	}

	var literals []Literal
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		switch arg.Type() {
		case "string":
			if lit, ok := stringLiteral(arg, src); ok {
				literals = append(literals, lit)
			}
		case "binary_expression":
			// Adjacent-literal concatenation: "a " + "b". Any non-literal
			// operand disqualifies the whole argument, silently.
			if lits, ok := concatLiterals(arg, src); ok {
				literals = append(literals, lits...)
			}
		}
	}
	if len(literals) == 0 {
		return Candidate{}, false
	}
	return Candidate{Kind: ConstructFnCall, Name: name, Literals: literals}, true
}

// attrCandidate builds a candidate from a JSX attribute. The value may be a
// plain quoted string or an expression container holding a single string
// literal; anything else contributes nothing.
func attrCandidate(n *sitter.Node, src []byte) (Candidate, bool) {
	if n.NamedChildCount() == 0 {
		return Candidate{}, false
	}
	nameNode := n.NamedChild(0)
	switch nameNode.Type() {
	case "property_identifier", "identifier":
	default:
		return Candidate{}, false // namespaced attribute
	}
	name := nameNode.Content(src)

	var literals []Literal
	for i := 1; i < int(n.NamedChildCount()); i++ {
		value := n.NamedChild(i)
		switch value.Type() {
		case "string":
			if lit, ok := stringLiteral(value, src); ok {
				literals = append(literals, lit)
			}
		case "jsx_expression":
			if value.NamedChildCount() == 1 && value.NamedChild(0).Type() == "string" {
				if lit, ok := stringLiteral(value.NamedChild(0), src); ok {
					literals = append(literals, lit)
				}
			}
		}
	}
	if len(literals) == 0 {
		return Candidate{}, false
	}
	return Candidate{Kind: ConstructAttr, Name: name, Literals: literals}, true
}

// concatLiterals flattens a "+" chain whose leaves are all string literals,
// left to right. Returns false if any operand is not a static literal.
func concatLiterals(n *sitter.Node, src []byte) ([]Literal, bool) {
	op := n.ChildByFieldName("operator")
	if op == nil || op.Content(src) != "+" {
		return nil, false
	}

	var literals []Literal
	for _, side := range []*sitter.Node{n.ChildByFieldName("left"), n.ChildByFieldName("right")} {
		if side == nil {
			return nil, false
		}
		switch side.Type() {
		case "string":
			lit, ok := stringLiteral(side, src)
			if !ok {
				return nil, false
			}
			literals = append(literals, lit)
		case "binary_expression":
			lits, ok := concatLiterals(side, src)
			if !ok {
				return nil, false
			}
			literals = append(literals, lits...)
		default:
			return nil, false
		}
	}
	return literals, true
}

// stringLiteral extracts the quoted contents of a string node. The value is
// taken verbatim from the source (escape sequences stay escaped) so byte
// offsets into it map directly onto document positions.
func stringLiteral(n *sitter.Node, src []byte) (Literal, bool) {
	start, end := n.StartByte(), n.EndByte()
	if end < start+2 || int(end) > len(src) {
		return Literal{}, false // unterminated or degenerate
	}

	point := n.StartPoint()
	endPoint := n.EndPoint()
	return Literal{
		Value: string(src[start+1 : end-1]),
		Range: Range{
			StartLine: int(point.Row),
			StartCol:  int(point.Column) + 1, // past the opening quote
			EndLine:   int(endPoint.Row),
			EndCol:    int(endPoint.Column) - 1, // before the closing quote
		},
	}, true
}
