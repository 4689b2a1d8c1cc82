// Package metrics wraps the Prometheus counters and histograms the
// cache and collection layers report against. Each Recorder owns a
// private registry so multiple instances (as in tests) never collide
// on global registration.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder records cache and query activity. The zero value is not
// usable directly but every method is safe to call on a nil
// *Recorder, so components can accept an optional recorder without
// nil-checking at every call site.
type Recorder struct {
	Registry *prometheus.Registry

	cacheHits      prometheus.Counter
	cacheMisses    prometheus.Counter
	cacheEvictions prometheus.Counter
	queries        *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	ivfRebuilds    *prometheus.CounterVec
}

// New creates a Recorder backed by a fresh, private registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		Registry: reg,
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_hits_total",
			Help: "Collection cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_misses_total",
			Help: "Collection cache misses that required a store load.",
		}),
		cacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vectordb_cache_evictions_total",
			Help: "Collections evicted from the cache under LRU pressure.",
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectordb_collection_queries_total",
			Help: "Queries served per collection.",
		}, []string{"collection"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vectordb_collection_query_latency_seconds",
			Help:    "Query latency per collection.",
			Buckets: prometheus.DefBuckets,
		}, []string{"collection"}),
		ivfRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vectordb_ivf_rebuilds_total",
			Help: "IVF index rebuilds per collection.",
		}, []string{"collection"}),
	}
	reg.MustRegister(r.cacheHits, r.cacheMisses, r.cacheEvictions, r.queries, r.queryLatency, r.ivfRebuilds)
	return r
}

func (r *Recorder) CacheHit() {
	if r == nil {
		return
	}
	r.cacheHits.Inc()
}

func (r *Recorder) CacheMiss() {
	if r == nil {
		return
	}
	r.cacheMisses.Inc()
}

func (r *Recorder) CacheEviction() {
	if r == nil {
		return
	}
	r.cacheEvictions.Inc()
}

func (r *Recorder) Query(collection string, seconds float64) {
	if r == nil {
		return
	}
	r.queries.WithLabelValues(collection).Inc()
	r.queryLatency.WithLabelValues(collection).Observe(seconds)
}

func (r *Recorder) IVFRebuild(collection string) {
	if r == nil {
		return
	}
	r.ivfRebuilds.WithLabelValues(collection).Inc()
}
