// Package ivfindex implements the Inverted-File index: a set of
// cosine-distance centroids with one posting list per cluster, built
// by the kmeans package's trainer.
package ivfindex

import (
	"sort"

	"github.com/monishSR/vectordb/internal/kmeans"
	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/vector"
)

const defaultNProbe = 4

// Entry is an (id, embedding) pair handed to Build/Rebuild.
type Entry struct {
	ID        string
	Embedding []float32
}

// Index holds centroids and their inverted posting lists. The zero
// value is not usable; construct with New.
type Index struct {
	Centroids      [][]float32
	InvertedLists  [][]string
	NClusters      int // desired C, fixed at construction
	NProbe         int
	pool           *parallel.Pool
}

// New constructs an empty index targeting nClusters clusters, with the
// default n_probe of 4 and nClusters empty inverted lists.
func New(nClusters int, pool *parallel.Pool) *Index {
	lists := make([][]string, nClusters)
	for i := range lists {
		lists[i] = []string{}
	}
	return &Index{
		InvertedLists: lists,
		NClusters:     nClusters,
		NProbe:        defaultNProbe,
		pool:          pool,
	}
}

// WithNProbe clamps p to [1, n_clusters] and sets it as n_probe.
func (idx *Index) WithNProbe(p int) *Index {
	if p < 1 {
		p = 1
	}
	if p > idx.NClusters && idx.NClusters > 0 {
		p = idx.NClusters
	}
	idx.NProbe = p
	return idx
}

// IsBuilt reports whether the index has been built at least once.
func (idx *Index) IsBuilt() bool {
	return len(idx.Centroids) > 0
}

// Build fits k-means over data and replaces the index's centroids and
// inverted lists. The actual cluster count is
// clamp(NClusters, 1, floor(len(data)/10)). An empty data set is a
// no-op; the previous index contents are discarded only once data is
// non-empty.
func (idx *Index) Build(data []Entry) {
	if len(data) == 0 {
		return
	}

	actual := idx.NClusters
	if max := len(data) / 10; max < actual {
		actual = max
	}
	if actual < 1 {
		actual = 1
	}

	embeddings := make([][]float32, len(data))
	for i, e := range data {
		embeddings[i] = e.Embedding
	}

	trainer := kmeans.New(actual, kmeans.WithPool(idx.pool))
	trainer.Fit(embeddings)

	idx.Centroids = trainer.Centroids
	lists := make([][]string, len(idx.Centroids))
	for i := range lists {
		lists[i] = []string{}
	}

	for _, e := range data {
		cluster := trainer.Predict(e.Embedding)
		lists[cluster] = append(lists[cluster], e.ID)
	}
	idx.InvertedLists = lists
}

// Rebuild is an alias for Build: IVF has no incremental update path,
// the whole index is reconstructed from scratch every time.
func (idx *Index) Rebuild(data []Entry) { idx.Build(data) }

// SearchCandidates returns the ids found in the n_probe closest
// clusters' inverted lists, concatenated in cluster-distance order.
// It returns nil if the index isn't built yet. It does not compute
// distances on the candidate entries themselves — that's the caller's
// job once it has resolved ids back to vectors.
func (idx *Index) SearchCandidates(query []float32) []string {
	if !idx.IsBuilt() {
		return nil
	}

	type clusterDist struct {
		cluster int
		dist    float32
	}
	dists := make([]clusterDist, len(idx.Centroids))
	for i, c := range idx.Centroids {
		dists[i] = clusterDist{cluster: i, dist: vector.CosineDistance(query, c)}
	}
	sort.Slice(dists, func(i, j int) bool { return dists[i].dist < dists[j].dist })

	probe := idx.NProbe
	if probe > len(dists) {
		probe = len(dists)
	}

	var candidates []string
	for i := 0; i < probe; i++ {
		candidates = append(candidates, idx.InvertedLists[dists[i].cluster]...)
	}
	return candidates
}
