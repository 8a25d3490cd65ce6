package cnls

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// ScanStylesheet parses CSS source and returns one selector-kind token per
// class selector, so class declarations participate in the index as peers of
// their usages. Utility frameworks escape variant separators in selectors
// (".hover\:w-10"); the token literal is the final segment after unescaping,
// matching the class string authors write in markup.
func ScanStylesheet(ctx context.Context, uri string, src []byte) ([]Token, error) {
	grammar, ok := GrammarForDialect(DialectCSS)
	if !ok {
		return nil, fmt.Errorf("stylesheet %s: css grammar unavailable", uri)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("stylesheet %s: parse: %w", uri, err)
	}
	defer tree.Close()

	var (
		tokens  []Token
		scanned int
	)
	collectSelectors(tree.RootNode(), src, uri, &tokens, &scanned)
	return tokens, nil
}

// collectSelectors walks the stylesheet tree appending a token for every
// class_selector node. scanned is the byte offset the last emitted selector
// was consumed through; nodes the grammar mis-parses inside an escaped
// selector's tail start before it and are skipped.
func collectSelectors(n *sitter.Node, src []byte, uri string, tokens *[]Token, scanned *int) {
	if n.Type() == "class_selector" && int(n.StartByte()) >= *scanned {
		if name, end := classNameAt(n, src); name != "" {
			start := n.StartPoint()
			*scanned = end
			*tokens = append(*tokens, Token{
				URI:     uri,
				Literal: name,
				Kind:    ConstructSelector,
				Range: Range{
					StartLine: int(start.Row),
					StartCol:  int(start.Column),
					EndLine:   int(n.EndPoint().Row),
					EndCol:    int(n.EndPoint().Column) + end - int(n.EndByte()),
				},
			})
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		collectSelectors(n.NamedChild(i), src, uri, tokens, scanned)
	}
}

// classNameAt extracts the class name declared by a class_selector node,
// returning it with the byte offset the selector was consumed through. The
// grammar terminates class_name at the first backslash escape, so the name is
// read from the raw source instead: consumption continues past the node's end
// through every `\<char>` escape pair and the identifier bytes that follow it.
// The result is unescaped and reduced to the segment after the last variant
// separator ("hover\:w-10" declares w-10), which is the class string authors
// write in markup. An unescaped separator ends the selector, so trailing
// pseudo-classes are never consumed.
func classNameAt(n *sitter.Node, src []byte) (string, int) {
	var nameNode *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == "class_name" {
			nameNode = child
			break
		}
	}
	if nameNode == nil {
		return "", int(n.EndByte())
	}

	end := int(n.EndByte())
	for end+1 < len(src) && src[end] == '\\' && src[end+1] != '\n' {
		end += 2
		for end < len(src) && isIdentByte(src[end]) {
			end++
		}
	}

	name := strings.ReplaceAll(string(src[nameNode.StartByte():end]), `\`, "")
	if at := strings.LastIndexByte(name, ':'); at >= 0 {
		name = name[at+1:]
	}
	return name, end
}

func isIdentByte(b byte) bool {
	return b == '-' || b == '_' ||
		'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || '0' <= b && b <= '9'
}
