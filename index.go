package cnls

import (
	"fmt"
	"sync"

	"github.com/jward/cnls/internal/store"
)

// Document is one indexed document snapshot. Snapshots are immutable:
// every successful re-scan builds a new Document and swaps it in wholesale,
// so a concurrent query sees either the old or the new snapshot, never a
// half-updated one.
type Document struct {
	URI        string
	Text       string
	Version    int32
	Dialect    Dialect
	Tokens     []Token
	Background bool // indexed by the workspace scan, never mutated by edits
}

// Index maps document URIs to their current snapshots and mirrors every
// token into the store's literal-keyed occurrence table. The snapshot map
// and the store are updated inside the same critical section, so the
// cross-document view never references a document that was since replaced
// or removed.
type Index struct {
	mu    sync.RWMutex
	docs  map[string]*Document
	store *store.Store
}

// NewIndex creates an empty index backed by the given store.
func NewIndex(s *store.Store) *Index {
	return &Index{
		docs:  make(map[string]*Document),
		store: s,
	}
}

// Replace installs doc as the current snapshot for its URI. A background
// snapshot never displaces an open document: editor state wins over the
// workspace scan.
func (ix *Index) Replace(doc *Document) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if doc.Background {
		if cur, ok := ix.docs[doc.URI]; ok && !cur.Background {
			return nil
		}
	}

	occs := make([]store.Occurrence, len(doc.Tokens))
	for i, t := range doc.Tokens {
		occs[i] = store.Occurrence{
			URI:        t.URI,
			Literal:    t.Literal,
			Kind:       t.Kind.String(),
			Rule:       t.MatchedRule,
			Background: doc.Background,
			StartLine:  t.Range.StartLine,
			StartCol:   t.Range.StartCol,
			EndLine:    t.Range.EndLine,
			EndCol:     t.Range.EndCol,
		}
	}
	if err := ix.store.ReplaceDocument(doc.URI, int64(doc.Version), doc.Background, occs); err != nil {
		return fmt.Errorf("index %s: %w", doc.URI, err)
	}
	ix.docs[doc.URI] = doc
	return nil
}

// Remove drops the snapshot and its contribution to the derived map.
func (ix *Index) Remove(uri string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if err := ix.store.RemoveDocument(uri); err != nil {
		return fmt.Errorf("remove %s: %w", uri, err)
	}
	delete(ix.docs, uri)
	return nil
}

// Get returns the current snapshot for uri, or nil.
func (ix *Index) Get(uri string) *Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs[uri]
}

// Documents returns the current snapshots, open documents only when
// openOnly is set.
func (ix *Index) Documents(openOnly bool) []*Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	docs := make([]*Document, 0, len(ix.docs))
	for _, d := range ix.docs {
		if openOnly && d.Background {
			continue
		}
		docs = append(docs, d)
	}
	return docs
}

// TokenAt finds the token in uri's snapshot containing the given position.
// Token ranges within a scanned document do not overlap, so at most one
// matches.
func (ix *Index) TokenAt(uri string, line, col int) (Token, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	doc, ok := ix.docs[uri]
	if !ok {
		return Token{}, false
	}
	for _, t := range doc.Tokens {
		if t.Range.Contains(line, col) {
			return t, true
		}
	}
	return Token{}, false
}

// Occurrences returns every indexed occurrence of literal across all
// documents, ordered by URI then position.
func (ix *Index) Occurrences(literal string) ([]Occurrence, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.store.Occurrences(literal)
}
