package vectordb

import (
	"sort"
	"sync"
	"time"

	"github.com/monishSR/vectordb/internal/collection"
	"github.com/monishSR/vectordb/internal/metrics"
	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/vdberrors"
)

// PersistentStore is the contract the cache assumes of durable
// storage. internal/store.FileStore is the reference implementation;
// callers may supply their own (a database-backed one, say) as long as
// Load reconstructs a collection with needs_rebuild already set for
// IVF collections, per collection.FromSnapshot's contract.
type PersistentStore interface {
	Save(c *collection.Collection) error
	Load(name string) (*collection.Collection, error)
	Delete(name string) error
	List() ([]string, error)
	Exists(name string) bool
}

// residentEntry is one in-memory collection plus its LRU bookkeeping.
type residentEntry struct {
	collection *collection.Collection
	lastAccess int64
}

// Cache is the in-process front door to the database: a bounded set of
// resident collections backed by a PersistentStore, arbitrated by a
// single RWMutex exactly as spec §5 prescribes (no per-collection
// locks). Every exported method is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	store   PersistentStore
	entries map[string]*residentEntry

	maxCached int
	tuning    collection.Tuning
	pool      *parallel.Pool
	metrics   *metrics.Recorder

	clock func() int64
}

// New creates a Cache over store using cfg's tuning and capacity.
func New(store PersistentStore, cfg Config) *Cache {
	maxCached := cfg.MaxCached
	if maxCached <= 0 {
		maxCached = 1
	}
	return &Cache{
		store:     store,
		entries:   make(map[string]*residentEntry),
		maxCached: maxCached,
		tuning:    cfg.tuning(),
		pool:      parallel.New(0),
		metrics:   metrics.New(),
		clock:     func() int64 { return time.Now().Unix() },
	}
}

// WithClock overrides the access-timestamp source; only tests need
// this, since the default wall-clock second is otherwise indistinguishable
// across calls made in the same second.
func (ca *Cache) WithClock(clock func() int64) *Cache {
	ca.clock = clock
	return ca
}

// Metrics exposes the recorder's registry for scraping.
func (ca *Cache) Metrics() *metrics.Recorder { return ca.metrics }

// CreateCollection creates and persists a new non-IVF collection. It
// fails with ErrCollectionAlreadyExists if the name is resident or
// already persisted.
func (ca *Cache) CreateCollection(name string, dimension int) error {
	return ca.createCollection(name, func() *collection.Collection {
		return collection.New(name, dimension, ca.tuning, ca.pool, ca.metrics)
	})
}

// CreateCollectionWithIVF creates and persists a new IVF-backed
// collection.
func (ca *Cache) CreateCollectionWithIVF(name string, dimension, nClusters int) error {
	return ca.createCollection(name, func() *collection.Collection {
		return collection.NewWithIVF(name, dimension, nClusters, ca.tuning, ca.pool, ca.metrics)
	})
}

func (ca *Cache) createCollection(name string, build func() *collection.Collection) error {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	if _, ok := ca.entries[name]; ok {
		return vdberrors.CollectionAlreadyExistsError{Name: name}
	}
	if ca.store.Exists(name) {
		return vdberrors.CollectionAlreadyExistsError{Name: name}
	}

	c := build()
	if err := ca.store.Save(c); err != nil {
		return err
	}
	if err := ca.makeRoom(); err != nil {
		return err
	}
	ca.entries[name] = &residentEntry{collection: c, lastAccess: ca.clock()}
	return nil
}

// DeleteCollection removes a collection from both the cache and the
// store. Deleting an unknown collection is not an error, matching the
// store's own Delete contract.
func (ca *Cache) DeleteCollection(name string) error {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	delete(ca.entries, name)
	return ca.store.Delete(name)
}

// ListCollections returns every persisted collection name.
func (ca *Cache) ListCollections() ([]string, error) {
	ca.mu.RLock()
	defer ca.mu.RUnlock()
	return ca.store.List()
}

// ensureResident returns the resident entry for name, loading it from
// the store on a cache miss. Caller must hold ca.mu for writing.
func (ca *Cache) ensureResident(name string) (*residentEntry, error) {
	if e, ok := ca.entries[name]; ok {
		ca.metrics.CacheHit()
		e.lastAccess = ca.clock()
		return e, nil
	}

	ca.metrics.CacheMiss()
	c, err := ca.store.Load(name)
	if err != nil {
		return nil, err
	}
	if err := ca.makeRoom(); err != nil {
		return nil, err
	}
	e := &residentEntry{collection: c, lastAccess: ca.clock()}
	ca.entries[name] = e
	return e, nil
}

// makeRoom evicts the least-recently-accessed resident collection(s)
// until there is space for one more. Caller must hold ca.mu for
// writing. The evicted collection is persisted first so that any
// in-memory-only state is never silently dropped: WithCollectionMut
// persists after every successful f, but an f that mutates and then
// returns an error, or a save that fails, leaves changes that only
// this save writes out.
func (ca *Cache) makeRoom() error {
	for len(ca.entries) >= ca.maxCached {
		victim, ok := ca.lruVictim()
		if !ok {
			return nil
		}
		if err := ca.store.Save(ca.entries[victim].collection); err != nil {
			return err
		}
		delete(ca.entries, victim)
		ca.metrics.CacheEviction()
	}
	return nil
}

// lruVictim picks the resident collection with the smallest
// last_access, breaking ties by name so the choice is deterministic
// regardless of Go's randomized map iteration order.
func (ca *Cache) lruVictim() (string, bool) {
	if len(ca.entries) == 0 {
		return "", false
	}
	names := make([]string, 0, len(ca.entries))
	for name := range ca.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	best := names[0]
	bestAccess := ca.entries[best].lastAccess
	for _, name := range names[1:] {
		if access := ca.entries[name].lastAccess; access < bestAccess {
			best, bestAccess = name, access
		}
	}
	return best, true
}

// GetCollection ensures the named collection is resident, loading it
// from the store on a miss, and refreshes its last_access on a hit.
// It does not hand back the collection itself: callers that need to
// read or mutate it still go through WithCollection/WithCollectionMut,
// which arbitrate access under the cache's lock. GetCollection exists
// to let a caller pre-warm or touch a collection without supplying a
// no-op callback.
func (ca *Cache) GetCollection(name string) error {
	ca.mu.RLock()
	if e, ok := ca.entries[name]; ok {
		ca.metrics.CacheHit()
		e.lastAccess = ca.clock()
		ca.mu.RUnlock()
		return nil
	}
	ca.mu.RUnlock()

	ca.mu.Lock()
	defer ca.mu.Unlock()
	_, err := ca.ensureResident(name)
	return err
}

// WithCollection gives f read-only access to the named collection,
// loading it into the cache on a miss. The cache's single RWMutex is
// held for the duration of f: readers run concurrently with each
// other but exclude writers and loaders, matching spec §5's
// shared-lock arbitration. f must not retain the *collection.Collection
// it is given past the call.
func (ca *Cache) WithCollection(name string, f func(*collection.Collection)) error {
	ca.mu.RLock()
	if e, ok := ca.entries[name]; ok {
		ca.metrics.CacheHit()
		e.lastAccess = ca.clock()
		f(e.collection)
		ca.mu.RUnlock()
		return nil
	}
	ca.mu.RUnlock()

	// Miss: upgrade to an exclusive lock and load, double-checking in
	// case another goroutine raced us to it.
	ca.mu.Lock()
	defer ca.mu.Unlock()
	e, err := ca.ensureResident(name)
	if err != nil {
		return err
	}
	f(e.collection)
	return nil
}

// WithCollectionMut gives f exclusive read-write access to the named
// collection, loading it on a miss, then persists the collection
// before returning. The exclusive lock is held for the full duration
// of f plus the save, so concurrent mutations of the same or any other
// collection are serialized against it. If f returns an error the
// collection is not persisted. If the save itself fails after f
// succeeded, f's mutation is NOT rolled back: the in-memory collection
// keeps the change and the next successful save will include it, but
// a crash before then would lose it. Callers needing stronger
// durability guarantees should retry the save or treat the whole
// operation as failed and reload.
func (ca *Cache) WithCollectionMut(name string, f func(*collection.Collection) error) error {
	ca.mu.Lock()
	defer ca.mu.Unlock()

	e, err := ca.ensureResident(name)
	if err != nil {
		return err
	}
	if err := f(e.collection); err != nil {
		return err
	}
	return ca.store.Save(e.collection)
}

// Resident reports whether name is currently cached, for tests and
// diagnostics.
func (ca *Cache) Resident(name string) bool {
	ca.mu.RLock()
	defer ca.mu.RUnlock()
	_, ok := ca.entries[name]
	return ok
}

// ResidentCount reports how many collections are currently cached.
func (ca *Cache) ResidentCount() int {
	ca.mu.RLock()
	defer ca.mu.RUnlock()
	return len(ca.entries)
}
