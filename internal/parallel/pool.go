// Package parallel provides the bounded-concurrency fan-out used for
// distance computation and k-means assignment: as many workers as
// hardware threads, no unbounded goroutine growth on large inputs.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of concurrently running tasks submitted
// through Map.
type Pool struct {
	limit int
}

// New returns a Pool with the given concurrency limit. A limit <= 0
// defaults to GOMAXPROCS, matching "as many workers as hardware
// threads".
func New(limit int) *Pool {
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	return &Pool{limit: limit}
}

// Map runs fn(i) for every i in [0, n), fanned out across the pool's
// worker limit, and blocks until all calls have returned. fn must be
// safe to call concurrently; the caller is responsible for writing
// each worker's output to a distinct slot (typically results[i]) so
// no synchronization is needed inside fn.
func (p *Pool) Map(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(p.limit)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait()
}
