// Package collection implements a single named collection of
// fixed-dimension vectors: storage, mutation, the IVF rebuild state
// machine, and the query pipeline (linear and IVF). Every exported
// method assumes the caller (the cache/client layer) has already
// arranged the right degree of exclusivity — Collection holds no lock
// of its own.
package collection

import (
	"sort"
	"time"

	"github.com/monishSR/vectordb/internal/filter"
	"github.com/monishSR/vectordb/internal/ivfindex"
	"github.com/monishSR/vectordb/internal/metrics"
	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/vdberrors"
	"github.com/monishSR/vectordb/internal/vector"
)

// Config is the immutable shape of a collection: its name, dimension,
// and whether it is IVF-backed. n_clusters is only meaningful when
// UseIVF is set.
type Config struct {
	Name      string
	Dimension int
	UseIVF    bool
	NClusters int
}

// Tuning carries the knobs the cache/client layer's configuration
// (spec §6) feeds into every collection it constructs or loads.
type Tuning struct {
	NProbe            int
	KMeansMaxIter     int
	KMeansTolerance   float32
	RebuildDirtyRatio float64
	RebuildDirtyFloor int
}

// DefaultTuning matches the defaults in the configuration table.
func DefaultTuning() Tuning {
	return Tuning{
		NProbe:            4,
		KMeansMaxIter:     50,
		KMeansTolerance:   1e-4,
		RebuildDirtyRatio: 0.10,
		RebuildDirtyFloor: 10,
	}
}

// Collection is an id-keyed set of vector entries plus an optional IVF
// index and the bookkeeping needed to decide when to rebuild it.
type Collection struct {
	Config Config

	vectors map[string]vector.VectorEntry
	ivf     *ivfindex.Index

	needsRebuild        bool
	batchMode           bool
	modificationsCount int

	lastQueryMS  float64
	totalQueries int

	tuning  Tuning
	pool    *parallel.Pool
	metrics *metrics.Recorder
}

// New builds an empty, non-IVF collection.
func New(name string, dimension int, tuning Tuning, pool *parallel.Pool, rec *metrics.Recorder) *Collection {
	return &Collection{
		Config:  Config{Name: name, Dimension: dimension},
		vectors: make(map[string]vector.VectorEntry),
		tuning:  tuning,
		pool:    pool,
		metrics: rec,
	}
}

// NewWithIVF builds an empty, IVF-backed collection. It starts with
// needs_rebuild = true per spec invariant D.
func NewWithIVF(name string, dimension, nClusters int, tuning Tuning, pool *parallel.Pool, rec *metrics.Recorder) *Collection {
	idx := ivfindex.New(nClusters, pool)
	idx.WithNProbe(tuning.NProbe)
	return &Collection{
		Config:       Config{Name: name, Dimension: dimension, UseIVF: true, NClusters: nClusters},
		vectors:      make(map[string]vector.VectorEntry),
		ivf:          idx,
		needsRebuild: true,
		tuning:       tuning,
		pool:         pool,
		metrics:      rec,
	}
}

// Snapshot is the persisted shape of a collection: its configuration
// plus every stored entry. It deliberately excludes the IVF index and
// transient telemetry (spec §3/§6: the IVF index is never serialized).
type Snapshot struct {
	Config  Config
	Entries []vector.VectorEntry
}

// Snapshot captures the persisted shape of the collection.
func (c *Collection) Snapshot() Snapshot {
	entries := make([]vector.VectorEntry, 0, len(c.vectors))
	for _, e := range c.vectors {
		entries = append(entries, e.Clone())
	}
	return Snapshot{Config: c.Config, Entries: entries}
}

// FromSnapshot reconstructs a collection from a persisted snapshot. An
// IVF collection always comes back with needs_rebuild = true and an
// empty index, matching the store's load contract.
func FromSnapshot(snap Snapshot, tuning Tuning, pool *parallel.Pool, rec *metrics.Recorder) *Collection {
	var c *Collection
	if snap.Config.UseIVF {
		c = NewWithIVF(snap.Config.Name, snap.Config.Dimension, snap.Config.NClusters, tuning, pool, rec)
	} else {
		c = New(snap.Config.Name, snap.Config.Dimension, tuning, pool, rec)
	}
	for _, e := range snap.Entries {
		c.vectors[e.ID] = e.Clone()
	}
	return c
}

// NeedsRebuild reports the current rebuild-pending flag, primarily for
// tests and stats.
func (c *Collection) NeedsRebuild() bool { return c.needsRebuild }

// ModificationsCount reports the mutation counter since the last
// rebuild, primarily for tests.
func (c *Collection) ModificationsCount() int { return c.modificationsCount }

// BeginBatch suppresses the needs_rebuild flag for subsequent
// mutations until EndBatch.
func (c *Collection) BeginBatch() { c.batchMode = true }

// EndBatch clears batch mode and performs the suppressed CLEAN->DIRTY
// transition exactly once, if any mutation happened while batching.
func (c *Collection) EndBatch() {
	c.batchMode = false
	if c.Config.UseIVF && c.modificationsCount > 0 {
		c.needsRebuild = true
	}
}

// Add inserts or overwrites entries for the given ids. Embeddings are
// cloned and L2-normalized before storage.
func (c *Collection) Add(ids []string, embeddings [][]float32, metadatas []map[string]vector.MetadataValue) error {
	if len(ids) != len(embeddings) {
		return vdberrors.InvalidConfigError{Reason: "ids and embeddings must have the same length"}
	}
	if metadatas != nil && len(metadatas) != len(ids) {
		return vdberrors.InvalidConfigError{Reason: "metadatas must have the same length as ids"}
	}

	for i := range ids {
		if len(embeddings[i]) != c.Config.Dimension {
			return vdberrors.DimensionMismatchError{Expected: c.Config.Dimension, Actual: len(embeddings[i])}
		}
	}

	for i, id := range ids {
		emb := vector.Normalized(embeddings[i])

		var meta map[string]vector.MetadataValue
		if metadatas != nil {
			meta = vector.CloneMetadata(metadatas[i])
		} else {
			meta = make(map[string]vector.MetadataValue)
		}

		c.vectors[id] = vector.VectorEntry{ID: id, Embedding: emb, Metadata: meta}
	}

	if c.Config.UseIVF {
		c.modificationsCount += len(ids)
		if !c.batchMode {
			c.needsRebuild = true
		}
	}

	return nil
}

// IDSelection picks which ids Get should return. The zero value
// selects no entries; use AllIDs for every entry or SelectIDs for an
// explicit, ordered list.
type IDSelection struct {
	ids []string
	all bool
}

// AllIDs selects every stored entry, in iteration order.
func AllIDs() IDSelection { return IDSelection{all: true} }

// SelectIDs selects exactly the given ids, in the order given,
// silently skipping ids that aren't present.
func SelectIDs(ids []string) IDSelection { return IDSelection{ids: ids} }

// GetResult is the output of Get: parallel slices over the ids found
// (embeddings/metadatas are nil, not empty, when not requested).
type GetResult struct {
	IDs        []string
	Embeddings [][]float32
	Metadatas  []map[string]vector.MetadataValue
}

// Get returns stored entries matching sel. includeEmbeddings and
// includeMetadata gate whether those fields are populated in the
// result; defaulting to both true matches the spec's default include
// set of {"metadatas", "embeddings"}.
func (c *Collection) Get(sel IDSelection, includeEmbeddings, includeMetadata bool) GetResult {
	var entries []vector.VectorEntry
	if sel.all {
		entries = make([]vector.VectorEntry, 0, len(c.vectors))
		for _, e := range c.vectors {
			entries = append(entries, e)
		}
	} else {
		entries = make([]vector.VectorEntry, 0, len(sel.ids))
		for _, id := range sel.ids {
			if e, ok := c.vectors[id]; ok {
				entries = append(entries, e)
			}
		}
	}

	result := GetResult{IDs: make([]string, len(entries))}
	if includeEmbeddings {
		result.Embeddings = make([][]float32, len(entries))
	}
	if includeMetadata {
		result.Metadatas = make([]map[string]vector.MetadataValue, len(entries))
	}
	for i, e := range entries {
		result.IDs[i] = e.ID
		if includeEmbeddings {
			emb := make([]float32, len(e.Embedding))
			copy(emb, e.Embedding)
			result.Embeddings[i] = emb
		}
		if includeMetadata {
			result.Metadatas[i] = vector.CloneMetadata(e.Metadata)
		}
	}
	return result
}

// Update merges the given metadata keys into each id's existing
// metadata (overwriting on collision). It never touches embeddings and
// never sets needs_rebuild.
func (c *Collection) Update(ids []string, metadatas []map[string]vector.MetadataValue) error {
	if len(ids) != len(metadatas) {
		return vdberrors.InvalidConfigError{Reason: "ids and metadatas must have the same length"}
	}
	for _, id := range ids {
		if _, ok := c.vectors[id]; !ok {
			return vdberrors.VectorNotFoundError{ID: id}
		}
	}
	for i, id := range ids {
		entry := c.vectors[id]
		for k, v := range metadatas[i] {
			entry.Metadata[k] = v
		}
	}
	return nil
}

// Delete removes each given id if present (silent on absent ids).
func (c *Collection) Delete(ids []string) {
	for _, id := range ids {
		delete(c.vectors, id)
	}
	if c.Config.UseIVF {
		c.modificationsCount += len(ids)
		if !c.batchMode {
			c.needsRebuild = true
		}
	}
}

// Count returns the number of stored entries.
func (c *Collection) Count() int { return len(c.vectors) }

// IndexInfo summarizes the IVF index state for Stats.
type IndexInfo struct {
	IsBuilt      bool
	NClusters    int
	NCentroids   int
	NeedsRebuild bool
}

// Stats is a snapshot of collection-level bookkeeping.
type Stats struct {
	Name                 string
	Dimension            int
	Count                int
	UseIVF               bool
	IndexInfo            *IndexInfo
	EstimatedMemoryBytes int
	LastQueryMS          float64
	TotalQueries         int
}

// Stats reports a point-in-time snapshot; it never mutates the
// collection.
func (c *Collection) Stats() Stats {
	s := Stats{
		Name:         c.Config.Name,
		Dimension:    c.Config.Dimension,
		Count:        len(c.vectors),
		UseIVF:       c.Config.UseIVF,
		LastQueryMS:  c.lastQueryMS,
		TotalQueries: c.totalQueries,
	}

	estimated := len(c.vectors) * (c.Config.Dimension*4 + 64)

	if c.Config.UseIVF && c.ivf != nil {
		s.IndexInfo = &IndexInfo{
			IsBuilt:      c.ivf.IsBuilt(),
			NClusters:    c.Config.NClusters,
			NCentroids:   len(c.ivf.Centroids),
			NeedsRebuild: c.needsRebuild,
		}
		estimated += len(c.ivf.Centroids) * c.Config.Dimension * 4
	}

	s.EstimatedMemoryBytes = estimated
	return s
}

// RebuildIndex is a no-op unless this is an IVF collection with
// needs_rebuild set; otherwise it snapshots (id, embedding) pairs,
// rebuilds the IVF index, and clears needs_rebuild and the
// modification counter.
func (c *Collection) RebuildIndex() {
	if !c.Config.UseIVF || !c.needsRebuild || c.ivf == nil {
		return
	}

	data := make([]ivfindex.Entry, 0, len(c.vectors))
	for id, e := range c.vectors {
		data = append(data, ivfindex.Entry{ID: id, Embedding: e.Embedding})
	}

	c.ivf.Rebuild(data)
	c.needsRebuild = false
	c.modificationsCount = 0
	if c.metrics != nil {
		c.metrics.IVFRebuild(c.Config.Name)
	}
}

func (c *Collection) rebuildThreshold() int {
	threshold := int(float64(len(c.vectors)) * c.tuning.RebuildDirtyRatio)
	if threshold < c.tuning.RebuildDirtyFloor {
		threshold = c.tuning.RebuildDirtyFloor
	}
	return threshold
}

func (c *Collection) maybeAutoRebuild() {
	if !c.Config.UseIVF || !c.needsRebuild || len(c.vectors) == 0 {
		return
	}
	if c.modificationsCount >= c.rebuildThreshold() {
		c.RebuildIndex()
	}
}

// SearchResult is one ranked hit from Query.
type SearchResult struct {
	ID       string
	Distance float32
	Metadata map[string]vector.MetadataValue
}

// Query normalizes q, runs the candidate-selection and ranking
// pipeline described in spec §4.5, and returns up to k results sorted
// ascending by cosine distance. It updates telemetry
// (last_query_ms/total_queries) and may trigger an IVF rebuild, so it
// is a mutating operation despite being conceptually a read.
func (c *Collection) Query(q []float32, k int, where filter.Where) ([]SearchResult, error) {
	start := time.Now()

	if len(q) != c.Config.Dimension {
		return nil, vdberrors.DimensionMismatchError{Expected: c.Config.Dimension, Actual: len(q)}
	}

	c.maybeAutoRebuild()

	normalized := vector.Normalized(q)

	var results []SearchResult
	if c.Config.UseIVF && c.ivf != nil && c.ivf.IsBuilt() {
		results = c.queryIVF(normalized, k, where)
	} else {
		results = c.queryLinear(normalized, k, where)
		// Defensive re-filter: correctness holds even if a future code
		// path skips the pre-filter above.
		if where != nil {
			results = filterResults(results, where)
			if len(results) > k {
				results = results[:k]
			}
		}
	}

	c.lastQueryMS = time.Since(start).Seconds() * 1000
	c.totalQueries++
	if c.metrics != nil {
		c.metrics.Query(c.Config.Name, time.Since(start).Seconds())
	}

	return results, nil
}

const (
	linearParallelThreshold = 100
	ivfParallelThreshold    = 50
)

func (c *Collection) queryLinear(q []float32, k int, where filter.Where) []SearchResult {
	entries := make([]vector.VectorEntry, 0, len(c.vectors))
	for _, e := range c.vectors {
		if where == nil || filter.Matches(e.Metadata, where) {
			entries = append(entries, e)
		}
	}

	results := make([]SearchResult, len(entries))
	score := func(i int) {
		results[i] = SearchResult{
			ID:       entries[i].ID,
			Distance: vector.CosineDistance(q, entries[i].Embedding),
			Metadata: vector.CloneMetadata(entries[i].Metadata),
		}
	}
	if c.pool != nil && len(entries) > linearParallelThreshold {
		c.pool.Map(len(entries), score)
	} else {
		for i := range entries {
			score(i)
		}
	}

	return selectTopK(results, k)
}

func (c *Collection) queryIVF(q []float32, k int, where filter.Where) []SearchResult {
	candidateIDs := c.ivf.SearchCandidates(q)

	entries := make([]vector.VectorEntry, 0, len(candidateIDs))
	for _, id := range candidateIDs {
		e, ok := c.vectors[id]
		if !ok {
			continue // deleted since the index was built; filtered by map lookup
		}
		if where == nil || filter.Matches(e.Metadata, where) {
			entries = append(entries, e)
		}
	}

	results := make([]SearchResult, len(entries))
	score := func(i int) {
		results[i] = SearchResult{
			ID:       entries[i].ID,
			Distance: vector.CosineDistance(q, entries[i].Embedding),
			Metadata: vector.CloneMetadata(entries[i].Metadata),
		}
	}
	if c.pool != nil && len(entries) > ivfParallelThreshold {
		c.pool.Map(len(entries), score)
	} else {
		for i := range entries {
			score(i)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

// selectTopK truncates results to the k closest, using a partial
// selection (nth-element then sort) when k is small relative to the
// candidate set, and a full sort otherwise.
func selectTopK(results []SearchResult, k int) []SearchResult {
	if k < len(results)/4 {
		nthElement(results, k)
		if k < len(results) {
			results = results[:k]
		}
		sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	} else {
		sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
		if len(results) > k {
			results = results[:k]
		}
	}
	return results
}

// nthElement partially orders results so that results[:n] holds the n
// smallest-distance elements (unordered amongst themselves), using
// quickselect. It's a no-op when n >= len(results).
func nthElement(results []SearchResult, n int) {
	if n >= len(results) || n < 0 {
		return
	}
	lo, hi := 0, len(results)-1
	for lo < hi {
		pivot := results[(lo+hi)/2].Distance
		i, j := lo, hi
		for i <= j {
			for results[i].Distance < pivot {
				i++
			}
			for results[j].Distance > pivot {
				j--
			}
			if i <= j {
				results[i], results[j] = results[j], results[i]
				i++
				j--
			}
		}
		if n <= j {
			hi = j
		} else if n >= i {
			lo = i
		} else {
			break
		}
	}
}

func filterResults(results []SearchResult, where filter.Where) []SearchResult {
	out := results[:0]
	for _, r := range results {
		if filter.Matches(r.Metadata, where) {
			out = append(out, r)
		}
	}
	return out
}
