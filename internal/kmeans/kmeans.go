// Package kmeans implements the cosine-distance k-means++ trainer
// used to seed and build IVF clusters.
package kmeans

import (
	"math/rand"

	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/vector"
)

const (
	// DefaultMaxIter caps the number of Lloyd iterations.
	DefaultMaxIter = 50
	// DefaultTolerance is the total-shift threshold that stops
	// iteration early.
	DefaultTolerance = 1e-4
)

// KMeans fits cluster centroids over a set of vectors under cosine
// distance. Centroids are arithmetic means of their assigned points;
// they are not re-normalized, so cosine distance against a centroid is
// an approximation (see the IVF centroid normalization note in the
// design docs) — this is an intentional simplicity trade-off, not a
// defect.
type KMeans struct {
	Centroids  [][]float32
	NClusters  int
	MaxIter    int
	Tolerance  float32
	pool       *parallel.Pool
	rng        *rand.Rand
}

// Option configures a KMeans trainer.
type Option func(*KMeans)

// WithMaxIter overrides DefaultMaxIter.
func WithMaxIter(n int) Option { return func(k *KMeans) { k.MaxIter = n } }

// WithTolerance overrides DefaultTolerance.
func WithTolerance(t float32) Option { return func(k *KMeans) { k.Tolerance = t } }

// WithPool supplies a worker pool for the assignment fan-out; the
// centroid update step always runs sequentially. A nil pool (the
// default) runs assignment sequentially too.
func WithPool(p *parallel.Pool) Option { return func(k *KMeans) { k.pool = p } }

// WithRand supplies a deterministic source of randomness for the
// k-means++ seeding step, primarily for tests.
func WithRand(r *rand.Rand) Option { return func(k *KMeans) { k.rng = r } }

// New builds a trainer targeting nClusters clusters.
func New(nClusters int, opts ...Option) *KMeans {
	k := &KMeans{
		NClusters: nClusters,
		MaxIter:   DefaultMaxIter,
		Tolerance: DefaultTolerance,
	}
	for _, opt := range opts {
		opt(k)
	}
	if k.rng == nil {
		k.rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return k
}

// Fit trains centroids over data. Fitting an empty dataset is a no-op
// that leaves Centroids empty.
func (k *KMeans) Fit(data [][]float32) {
	if len(data) == 0 {
		return
	}
	if len(data) < k.NClusters {
		k.NClusters = len(data)
	}

	k.initCentroidsPlusPlus(data)

	for iter := 0; iter < k.MaxIter; iter++ {
		assignments := k.assign(data)
		shift := k.update(data, assignments)
		if shift < k.Tolerance {
			break
		}
	}
}

// Predict returns the index of the centroid nearest point under
// cosine distance, or 0 if there are no centroids.
func (k *KMeans) Predict(point []float32) int {
	if len(k.Centroids) == 0 {
		return 0
	}
	best := 0
	bestDist := vector.CosineDistance(point, k.Centroids[0])
	for i := 1; i < len(k.Centroids); i++ {
		d := vector.CosineDistance(point, k.Centroids[i])
		if d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// initCentroidsPlusPlus seeds k.Centroids via k-means++: the first
// centroid is a uniform random pick, each subsequent one is sampled
// with probability proportional to its cosine distance from the
// nearest existing centroid (cumulative-sum selection, falling back to
// a uniform pick if the cumulative total is zero).
func (k *KMeans) initCentroidsPlusPlus(data [][]float32) {
	k.Centroids = make([][]float32, 0, k.NClusters)

	first := data[k.rng.Intn(len(data))]
	k.Centroids = append(k.Centroids, cloneVec(first))

	for len(k.Centroids) < k.NClusters {
		distances := make([]float32, len(data))
		for i, point := range data {
			distances[i] = k.nearestCentroidDistance(point)
		}

		var total float32
		for _, d := range distances {
			total += d
		}

		var nextIdx int
		if total <= 0 {
			nextIdx = k.rng.Intn(len(data))
		} else {
			r := k.rng.Float32() * total
			nextIdx = len(data) - 1
			for i, d := range distances {
				r -= d
				if r <= 0 {
					nextIdx = i
					break
				}
			}
		}
		k.Centroids = append(k.Centroids, cloneVec(data[nextIdx]))
	}
}

func (k *KMeans) nearestCentroidDistance(point []float32) float32 {
	best := vector.CosineDistance(point, k.Centroids[0])
	for i := 1; i < len(k.Centroids); i++ {
		d := vector.CosineDistance(point, k.Centroids[i])
		if d < best {
			best = d
		}
	}
	return best
}

// assign maps each point to the index of its nearest centroid,
// fanned out across the worker pool when one is configured.
func (k *KMeans) assign(data [][]float32) []int {
	assignments := make([]int, len(data))
	if k.pool == nil {
		for i, point := range data {
			assignments[i] = k.Predict(point)
		}
		return assignments
	}
	k.pool.Map(len(data), func(i int) {
		assignments[i] = k.Predict(data[i])
	})
	return assignments
}

// update recomputes each centroid as the mean of its assigned points
// (empty clusters retain their previous centroid) and returns the
// total cosine-distance shift across all centroids.
func (k *KMeans) update(data [][]float32, assignments []int) float32 {
	dim := len(data[0])
	sums := make([][]float32, k.NClusters)
	counts := make([]int, k.NClusters)
	for i := range sums {
		sums[i] = make([]float32, dim)
	}

	for i, point := range data {
		cluster := assignments[i]
		counts[cluster]++
		for d := 0; d < dim; d++ {
			sums[cluster][d] += point[d]
		}
	}

	newCentroids := make([][]float32, k.NClusters)
	var totalShift float32
	for c := 0; c < k.NClusters; c++ {
		if counts[c] == 0 {
			newCentroids[c] = k.Centroids[c]
			continue
		}
		mean := sums[c]
		inv := 1 / float32(counts[c])
		for d := range mean {
			mean[d] *= inv
		}
		newCentroids[c] = mean
		totalShift += vector.CosineDistance(k.Centroids[c], mean)
	}

	k.Centroids = newCentroids
	return totalShift
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
