package vectordb

import (
	"fmt"
	"time"

	"github.com/monishSR/vectordb/internal/metrics"
	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/store"
)

// DB is the top-level handle most callers want: a Cache backed by the
// reference file-system store rooted at a directory. Embedding
// callers who bring their own PersistentStore should build a Cache
// directly instead of using Open.
type DB struct {
	*Cache
	store *store.FileStore
}

// Open creates or reopens a database rooted at dir, using cfg for
// cache capacity and collection tuning. The directory is created if
// it doesn't already exist.
func Open(dir string, cfg Config) (*DB, error) {
	pool := parallel.New(0)
	rec := metrics.New()

	fs, err := store.New(dir,
		store.WithTuning(cfg.tuning()),
		store.WithPool(pool),
		store.WithMetrics(rec),
	)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	maxCached := cfg.MaxCached
	if maxCached <= 0 {
		maxCached = 1
	}
	cache := &Cache{
		store:     fs,
		entries:   make(map[string]*residentEntry),
		maxCached: maxCached,
		tuning:    cfg.tuning(),
		pool:      pool,
		metrics:   rec,
		clock:     func() int64 { return time.Now().Unix() },
	}
	return &DB{Cache: cache, store: fs}, nil
}
