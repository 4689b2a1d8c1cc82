package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monishSR/vectordb/internal/filter"
	"github.com/monishSR/vectordb/internal/vdberrors"
	"github.com/monishSR/vectordb/internal/vector"
)

func newTestCollection(dim int) *Collection {
	return New("test", dim, DefaultTuning(), nil, nil)
}

func TestAddAndGet(t *testing.T) {
	c := newTestCollection(3)
	err := c.Add(
		[]string{"a", "b"},
		[][]float32{{1, 0, 0}, {0, 1, 0}},
		[]map[string]vector.MetadataValue{
			{"color": vector.StringValue("red")},
			{"color": vector.StringValue("blue")},
		},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Count())

	got := c.Get(SelectIDs([]string{"a"}), true, true)
	require.Len(t, got.IDs, 1)
	assert.Equal(t, "a", got.IDs[0])
	assert.Equal(t, "red", got.Metadatas[0]["color"].Str)
	// Embeddings come back L2-normalized, and {1,0,0} is already unit length.
	assert.Equal(t, float32(1), got.Embeddings[0][0])
}

func TestAddDimensionMismatch(t *testing.T) {
	c := newTestCollection(3)
	err := c.Add([]string{"a"}, [][]float32{{1, 2}}, nil)
	var dimErr vdberrors.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestAddOverwritesExistingID(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{1, 0}}, nil))
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{0, 1}}, nil))
	assert.Equal(t, 1, c.Count())

	got := c.Get(SelectIDs([]string{"a"}), true, false)
	assert.Equal(t, float32(1), got.Embeddings[0][1])
}

func TestGetAllIDs(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add([]string{"a", "b", "c"}, [][]float32{{1, 0}, {0, 1}, {1, 1}}, nil))
	got := c.Get(AllIDs(), false, false)
	assert.Len(t, got.IDs, 3)
	assert.Nil(t, got.Embeddings, "excluded fields should be nil, not empty slices")
	assert.Nil(t, got.Metadatas)
}

func TestUpdateMergesMetadata(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{1, 0}}, []map[string]vector.MetadataValue{
		{"color": vector.StringValue("red"), "size": vector.IntValue(1)},
	}))
	err := c.Update([]string{"a"}, []map[string]vector.MetadataValue{
		{"color": vector.StringValue("blue")},
	})
	require.NoError(t, err)

	got := c.Get(SelectIDs([]string{"a"}), false, true)
	assert.Equal(t, "blue", got.Metadatas[0]["color"].Str)
	assert.Equal(t, int64(1), got.Metadatas[0]["size"].Int, "update should merge, not replace")
}

func TestUpdateUnknownIDErrors(t *testing.T) {
	c := newTestCollection(2)
	err := c.Update([]string{"missing"}, []map[string]vector.MetadataValue{{}})
	var notFound vdberrors.VectorNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDeleteIsSilentOnUnknownID(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{1, 0}}, nil))
	c.Delete([]string{"a", "does-not-exist"})
	assert.Equal(t, 0, c.Count())
}

func TestQueryDimensionMismatch(t *testing.T) {
	c := newTestCollection(3)
	_, err := c.Query([]float32{1, 0}, 1, nil)
	var dimErr vdberrors.DimensionMismatchError
	assert.ErrorAs(t, err, &dimErr)
}

func TestQueryLinearRanksByDistance(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add(
		[]string{"close", "far", "mid"},
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
		nil,
	))
	results, err := c.Query([]float32{1, 0}, 3, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "close", results[0].ID)
	assert.True(t, results[0].Distance <= results[1].Distance)
	assert.True(t, results[1].Distance <= results[2].Distance)
}

func TestQueryTopKSmallerThanDataset(t *testing.T) {
	c := newTestCollection(2)
	ids := make([]string, 0, 50)
	embeddings := make([][]float32, 0, 50)
	for i := 0; i < 50; i++ {
		ids = append(ids, string(rune('a'+i)))
		embeddings = append(embeddings, []float32{float32(i + 1), 1})
	}
	require.NoError(t, c.Add(ids, embeddings, nil))

	results, err := c.Query([]float32{1, 1}, 3, nil) // k=3 < 50/4, hits the partial-select path
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i-1].Distance, results[i].Distance)
	}
}

func TestQueryAppliesWhereFilter(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add(
		[]string{"a", "b"},
		[][]float32{{1, 0}, {1, 0.01}},
		[]map[string]vector.MetadataValue{
			{"color": vector.StringValue("red")},
			{"color": vector.StringValue("blue")},
		},
	))
	where := filter.Where{"color": filter.DirectValue(vector.StringValue("blue"))}
	results, err := c.Query([]float32{1, 0}, 5, where)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)
}

func TestIVFCollectionStartsNeedingRebuild(t *testing.T) {
	c := NewWithIVF("ivf-test", 2, 4, DefaultTuning(), nil, nil)
	assert.True(t, c.NeedsRebuild())
}

func TestIVFAutoRebuildOnDirtyThreshold(t *testing.T) {
	tuning := DefaultTuning()
	tuning.RebuildDirtyFloor = 2
	c := NewWithIVF("ivf-test", 2, 2, tuning, nil, nil)

	ids := []string{"a", "b", "c", "d"}
	embeddings := [][]float32{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	require.NoError(t, c.Add(ids, embeddings, nil))
	require.True(t, c.NeedsRebuild(), "collection should still need a rebuild before any query runs")

	_, err := c.Query([]float32{1, 0}, 2, nil)
	require.NoError(t, err)
	assert.False(t, c.NeedsRebuild(), "a query past the dirty threshold should have triggered an automatic rebuild")
}

func TestBatchModeSuppressesRebuildUntilEndBatch(t *testing.T) {
	c := NewWithIVF("ivf-test", 2, 2, DefaultTuning(), nil, nil)
	require.NoError(t, c.Add([]string{"seed1", "seed2"}, [][]float32{{1, 0}, {0, 1}}, nil))
	c.RebuildIndex()
	require.False(t, c.NeedsRebuild(), "setup: rebuild should have cleared needs_rebuild")

	c.BeginBatch()
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{1, 1}}, nil))
	assert.False(t, c.NeedsRebuild(), "needs_rebuild should stay false while batching")

	c.EndBatch()
	assert.True(t, c.NeedsRebuild(), "EndBatch should flip needs_rebuild once, since a mutation happened during the batch")
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := newTestCollection(2)
	require.NoError(t, c.Add([]string{"a"}, [][]float32{{1, 0}}, []map[string]vector.MetadataValue{
		{"color": vector.StringValue("red")},
	}))
	snap := c.Snapshot()

	restored := FromSnapshot(snap, DefaultTuning(), nil, nil)
	assert.Equal(t, 1, restored.Count())

	got := restored.Get(SelectIDs([]string{"a"}), true, true)
	assert.Equal(t, "red", got.Metadatas[0]["color"].Str)
}

func TestSnapshotRoundTripIVFNeedsRebuild(t *testing.T) {
	c := NewWithIVF("ivf-test", 2, 2, DefaultTuning(), nil, nil)
	require.NoError(t, c.Add([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil))
	c.RebuildIndex()
	require.False(t, c.NeedsRebuild())

	snap := c.Snapshot()
	restored := FromSnapshot(snap, DefaultTuning(), nil, nil)
	assert.True(t, restored.NeedsRebuild(), "a restored IVF collection must always start needing a rebuild")
}

func TestStatsReportsIndexInfo(t *testing.T) {
	c := NewWithIVF("ivf-test", 2, 2, DefaultTuning(), nil, nil)
	require.NoError(t, c.Add([]string{"a", "b"}, [][]float32{{1, 0}, {0, 1}}, nil))
	c.RebuildIndex()

	stats := c.Stats()
	assert.Equal(t, 2, stats.Count)
	require.NotNil(t, stats.IndexInfo)
	assert.True(t, stats.IndexInfo.IsBuilt)
}
