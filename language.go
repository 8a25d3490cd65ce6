package cnls

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/css"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Dialect is the declared syntax of a document. It selects the tree-sitter
// grammar used to scan it.
type Dialect string

const (
	DialectJavaScript Dialect = "javascript" // .js and .jsx; the JS grammar includes JSX
	DialectTypeScript Dialect = "typescript" // .ts
	DialectTSX        Dialect = "tsx"        // .tsx
	DialectCSS        Dialect = "css"        // stylesheets, scanned for class selectors
)

// extToDialect maps file extensions to dialects.
var extToDialect = map[string]Dialect{
	".js":  DialectJavaScript,
	".jsx": DialectJavaScript,
	".mjs": DialectJavaScript,
	".cjs": DialectJavaScript,
	".ts":  DialectTypeScript,
	".tsx": DialectTSX,
	".css": DialectCSS,
}

// languageIDToDialect maps LSP language identifiers to dialects.
var languageIDToDialect = map[string]Dialect{
	"javascript":      DialectJavaScript,
	"javascriptreact": DialectJavaScript,
	"typescript":      DialectTypeScript,
	"typescriptreact": DialectTSX,
	"css":             DialectCSS,
}

// dialectToGrammar maps dialects to tree-sitter Language objects.
// Lazily initialized on first call via sync.Once.
var (
	dialectToGrammar map[Dialect]*sitter.Language
	grammarsOnce     sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		dialectToGrammar = map[Dialect]*sitter.Language{
			DialectJavaScript: javascript.GetLanguage(),
			DialectTypeScript: ts.GetLanguage(),
			DialectTSX:        tsx.GetLanguage(),
			DialectCSS:        css.GetLanguage(),
		}
	})
}

// DialectForPath returns the dialect for a file path based on its extension.
// Returns ("", false) if the extension is not recognized.
func DialectForPath(path string) (Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := extToDialect[ext]
	return d, ok
}

// DialectForLanguageID returns the dialect for an LSP language identifier.
// Returns ("", false) if the identifier is not recognized.
func DialectForLanguageID(id string) (Dialect, bool) {
	d, ok := languageIDToDialect[id]
	return d, ok
}

// GrammarForDialect returns the tree-sitter grammar for a dialect.
// Returns (nil, false) if the dialect is not supported.
func GrammarForDialect(d Dialect) (*sitter.Language, bool) {
	initGrammars()
	l, ok := dialectToGrammar[d]
	return l, ok
}
