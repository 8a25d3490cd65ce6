package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate())
	return s
}

func occ(uri, literal string, line, col int) Occurrence {
	return Occurrence{
		URI:       uri,
		Literal:   literal,
		Kind:      "att",
		Rule:      "className",
		StartLine: line,
		StartCol:  col,
		EndLine:   line,
		EndCol:    col + len(literal),
	}
}

func TestStore_ReplaceAndQuery(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceDocument("file:///b.jsx", 1, false, []Occurrence{
		occ("file:///b.jsx", "w-10", 3, 14),
	}))
	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 1, false, []Occurrence{
		occ("file:///a.jsx", "w-10", 8, 20),
		occ("file:///a.jsx", "w-10", 2, 5),
		occ("file:///a.jsx", "flex", 2, 10),
	}))

	occs, err := s.Occurrences("w-10")
	require.NoError(t, err)
	require.Len(t, occs, 3)

	// Ordered by URI then position.
	assert.Equal(t, "file:///a.jsx", occs[0].URI)
	assert.Equal(t, 2, occs[0].StartLine)
	assert.Equal(t, 8, occs[1].StartLine)
	assert.Equal(t, "file:///b.jsx", occs[2].URI)

	n, err := s.CountOccurrences("flex")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = s.CountOccurrences("absent")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStore_ReplaceSwapsContribution(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 1, false, []Occurrence{
		occ("file:///a.jsx", "w-10", 0, 0),
		occ("file:///a.jsx", "flex", 0, 5),
	}))
	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 2, false, []Occurrence{
		occ("file:///a.jsx", "mt-2", 0, 0),
	}))

	for literal, want := range map[string]int{"w-10": 0, "flex": 0, "mt-2": 1} {
		n, err := s.CountOccurrences(literal)
		require.NoError(t, err)
		assert.Equal(t, want, n, "literal %q", literal)
	}

	v, ok, err := s.DocumentVersion("file:///a.jsx")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), v)
}

func TestStore_RemoveDocument(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 1, false, []Occurrence{
		occ("file:///a.jsx", "w-10", 0, 0),
	}))
	require.NoError(t, s.RemoveDocument("file:///a.jsx"))

	n, err := s.CountOccurrences("w-10")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, ok, err := s.DocumentVersion("file:///a.jsx")
	require.NoError(t, err)
	assert.False(t, ok)

	// Removing an unknown document is a no-op.
	assert.NoError(t, s.RemoveDocument("file:///never.jsx"))
}

func TestStore_EmptyDocumentClearsOccurrences(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 1, false, []Occurrence{
		occ("file:///a.jsx", "w-10", 0, 0),
	}))
	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 2, false, nil))

	n, err := s.CountOccurrences("w-10")
	require.NoError(t, err)
	assert.Zero(t, n)

	v, ok, err := s.DocumentVersion("file:///a.jsx")
	require.NoError(t, err)
	require.True(t, ok, "the document row survives with no occurrences")
	assert.Equal(t, int64(2), v)
}

func TestStore_Literals(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 1, false, []Occurrence{
		occ("file:///a.jsx", "w-10", 0, 0),
		occ("file:///a.jsx", "flex", 0, 5),
		occ("file:///a.jsx", "flex", 1, 5),
	}))

	literals, err := s.Literals()
	require.NoError(t, err)
	assert.Equal(t, []string{"flex", "w-10"}, literals)
}

func TestStore_BackgroundFlagRoundTrips(t *testing.T) {
	s := newTestStore(t)

	o := occ("file:///a.jsx", "w-10", 0, 0)
	o.Background = true
	require.NoError(t, s.ReplaceDocument("file:///a.jsx", 0, true, []Occurrence{o}))

	occs, err := s.Occurrences("w-10")
	require.NoError(t, err)
	require.Len(t, occs, 1)
	assert.True(t, occs[0].Background)
	assert.Equal(t, "className", occs[0].Rule)
}
