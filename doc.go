// Package cnls implements a class-name language server core: it locates CSS
// utility-class literals inside JavaScript, TypeScript, JSX, and TSX source
// with tree-sitter and answers hover and go-to-definition queries about them.
//
// # Scopes
//
// Users describe where class-name strings appear with scope declarations of
// the form "variant:value[,value...]":
//
//	att:className,class    JSX attributes named className or class
//	fn:cva,cx              arguments of calls to cva or cx
//	att:*ClassName         any attribute ending in ClassName
//
// The fn variant targets call expressions, the att (or prop) variant targets
// JSX attributes. Values may carry a single leading or trailing wildcard.
// When no scopes are configured the server uses att:className,class and
// fn:createElement.
//
// # Pipeline
//
// For each open document the [Engine] parses the text with the grammar for
// its dialect, enumerates candidate constructs (call expressions and JSX
// attributes carrying static string literals), matches them against the
// configured scopes, and splits each matched literal into positioned class
// tokens. Tokens are kept in per-document snapshots, replaced wholesale on
// every edit, and cross-referenced by literal in an in-memory SQLite database
// so queries can enumerate every occurrence of a class across the workspace.
//
// Workspace files that are not open in the editor, including CSS stylesheets,
// are indexed read-only in the background so definition results can reach
// them. CSS class selectors become occurrences like any other, which lets
// go-to-definition land on the declaring rule.
//
// # Usage
//
//	e, err := cnls.New(cnls.WithScopes([]string{"att:className,class", "fn:cva"}))
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	_ = e.DidOpen(ctx, "file:///app/button.tsx", "typescriptreact", src, 1)
//
//	hov, _ := e.Hover("file:///app/button.tsx", 3, 21)
//	locs, _ := e.Definition("file:///app/button.tsx", 3, 21)
//
// The LSP transport lives in internal/server and cmd/cnls; the core never
// touches the wire.
package cnls
