package cnls

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/cnls/internal/store"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	s, err := store.NewStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return NewIndex(s)
}

func attToken(uri, literal string, line, col int) Token {
	return Token{
		URI:         uri,
		Literal:     literal,
		Kind:        ConstructAttr,
		MatchedRule: "className",
		Range:       Range{line, col, line, col + len(literal)},
	}
}

func TestIndex_ReplaceAndTokenAt(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI:     "file:///a.jsx",
		Version: 1,
		Dialect: DialectJavaScript,
		Tokens: []Token{
			attToken("file:///a.jsx", "w-10", 3, 14),
			attToken("file:///a.jsx", "flex", 3, 19),
		},
	}))

	tok, ok := ix.TokenAt("file:///a.jsx", 3, 14)
	require.True(t, ok)
	assert.Equal(t, "w-10", tok.Literal)

	// Start inclusive, end exclusive.
	_, ok = ix.TokenAt("file:///a.jsx", 3, 18)
	assert.False(t, ok, "position past the token's last byte")
	tok, ok = ix.TokenAt("file:///a.jsx", 3, 17)
	require.True(t, ok)
	assert.Equal(t, "w-10", tok.Literal)

	_, ok = ix.TokenAt("file:///a.jsx", 0, 0)
	assert.False(t, ok)
	_, ok = ix.TokenAt("file:///unknown.jsx", 3, 14)
	assert.False(t, ok)
}

func TestIndex_ReplaceSwapsSnapshotAndOccurrences(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 1, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "w-10", 0, 0)},
	}))
	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 2, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "mt-2", 0, 0)},
	}))

	occs, err := ix.Occurrences("w-10")
	require.NoError(t, err)
	assert.Empty(t, occs, "the old snapshot's tokens are gone")

	occs, err = ix.Occurrences("mt-2")
	require.NoError(t, err)
	assert.Len(t, occs, 1)

	doc := ix.Get("file:///a.jsx")
	require.NotNil(t, doc)
	assert.Equal(t, int32(2), doc.Version)
}

func TestIndex_BackgroundNeverDisplacesOpen(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 5, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "w-10", 0, 0)},
	}))
	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Dialect: DialectJavaScript, Background: true,
		Tokens: []Token{attToken("file:///a.jsx", "stale", 0, 0)},
	}))

	doc := ix.Get("file:///a.jsx")
	require.NotNil(t, doc)
	assert.False(t, doc.Background)
	assert.Equal(t, int32(5), doc.Version)

	occs, err := ix.Occurrences("stale")
	require.NoError(t, err)
	assert.Empty(t, occs, "the background snapshot was dropped entirely")
}

func TestIndex_OpenDisplacesBackground(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Dialect: DialectJavaScript, Background: true,
		Tokens: []Token{attToken("file:///a.jsx", "disk", 0, 0)},
	}))
	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 1, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "editor", 0, 0)},
	}))

	doc := ix.Get("file:///a.jsx")
	require.NotNil(t, doc)
	assert.False(t, doc.Background)

	occs, err := ix.Occurrences("disk")
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestIndex_Remove(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 1, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "w-10", 0, 0)},
	}))
	require.NoError(t, ix.Remove("file:///a.jsx"))

	assert.Nil(t, ix.Get("file:///a.jsx"))
	occs, err := ix.Occurrences("w-10")
	require.NoError(t, err)
	assert.Empty(t, occs)

	// Unknown URIs are a no-op.
	assert.NoError(t, ix.Remove("file:///never.jsx"))
}

func TestIndex_DocumentsFiltersBackground(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{URI: "file:///open.jsx", Version: 1, Dialect: DialectJavaScript}))
	require.NoError(t, ix.Replace(&Document{URI: "file:///disk.jsx", Dialect: DialectJavaScript, Background: true}))

	assert.Len(t, ix.Documents(false), 2)

	open := ix.Documents(true)
	require.Len(t, open, 1)
	assert.Equal(t, "file:///open.jsx", open[0].URI)
}

func TestIndex_OccurrencesSpanDocuments(t *testing.T) {
	ix := newTestIndex(t)

	require.NoError(t, ix.Replace(&Document{
		URI: "file:///b.jsx", Version: 1, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///b.jsx", "w-10", 1, 0)},
	}))
	require.NoError(t, ix.Replace(&Document{
		URI: "file:///a.jsx", Version: 1, Dialect: DialectJavaScript,
		Tokens: []Token{attToken("file:///a.jsx", "w-10", 7, 3)},
	}))

	occs, err := ix.Occurrences("w-10")
	require.NoError(t, err)
	require.Len(t, occs, 2)
	assert.Equal(t, "file:///a.jsx", occs[0].URI)
	assert.Equal(t, "file:///b.jsx", occs[1].URI)
}
