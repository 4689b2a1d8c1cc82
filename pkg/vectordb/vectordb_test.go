package vectordb

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/monishSR/vectordb/internal/collection"
)

func TestOpenCreateAddQueryRoundTrip(t *testing.T) {
	db, err := Open(t.TempDir(), DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, db.CreateCollection("widgets", 2))

	err = db.WithCollectionMut("widgets", func(c *collection.Collection) error {
		return c.Add(
			[]string{"close", "far"},
			[][]float32{{1, 0}, {0, 1}},
			nil,
		)
	})
	require.NoError(t, err)

	var results []SearchResult
	err = db.WithCollectionMut("widgets", func(c *collection.Collection) error {
		var queryErr error
		results, queryErr = c.Query([]float32{1, 0.01}, 1, nil)
		return queryErr
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "close", results[0].ID)
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir, DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, db.CreateCollection("widgets", 2))
	require.NoError(t, db.WithCollectionMut("widgets", func(c *collection.Collection) error {
		return c.Add([]string{"a"}, [][]float32{{1, 0}}, nil)
	}))

	reopened, err := Open(dir, DefaultConfig())
	require.NoError(t, err)

	var gotCount int
	err = reopened.WithCollection("widgets", func(c *collection.Collection) {
		gotCount = c.Count()
	})
	require.NoError(t, err)
	require.Equal(t, 1, gotCount)
}
