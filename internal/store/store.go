// Package store is a reference, file-system-backed implementation of
// the PersistentStore contract the core only assumes. It is not part
// of the CORE search engine (spec §1 puts on-disk layout out of
// scope) but is needed to exercise the cache/client layer end to end.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/monishSR/vectordb/internal/collection"
	"github.com/monishSR/vectordb/internal/metrics"
	"github.com/monishSR/vectordb/internal/parallel"
	"github.com/monishSR/vectordb/internal/vdberrors"
)

const dataFileName = "data.bin"

// FileStore persists one file per collection under
// <baseDir>/collections/<name>/data.bin. A small LRU cache of encoded
// blobs sits in front of disk reads so a collection the in-process
// cache just evicted doesn't always cost a disk round trip on the next
// load — this cache is independent of, and sits below, the core's own
// collection cache.
type FileStore struct {
	mu      sync.Mutex
	baseDir string
	tuning  collection.Tuning
	pool    *parallel.Pool
	metrics *metrics.Recorder
	blobs   *lru.Cache[string, []byte]
}

// Option configures a FileStore.
type Option func(*FileStore)

// WithBlobCacheSize overrides the default blob cache capacity (256).
// A size of 0 disables the blob cache.
func WithBlobCacheSize(n int) Option {
	return func(s *FileStore) {
		if n <= 0 {
			s.blobs = nil
			return
		}
		c, err := lru.New[string, []byte](n)
		if err == nil {
			s.blobs = c
		}
	}
}

// WithTuning supplies the Tuning every loaded collection is
// constructed with.
func WithTuning(t collection.Tuning) Option { return func(s *FileStore) { s.tuning = t } }

// WithPool supplies the worker pool every loaded collection uses.
func WithPool(p *parallel.Pool) Option { return func(s *FileStore) { s.pool = p } }

// WithMetrics supplies the metrics recorder every loaded collection
// reports through.
func WithMetrics(r *metrics.Recorder) Option { return func(s *FileStore) { s.metrics = r } }

// New creates a FileStore rooted at baseDir, creating the directory
// tree if necessary.
func New(baseDir string, opts ...Option) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(baseDir, "collections"), 0o755); err != nil {
		return nil, vdberrors.IOError{Op: "mkdir", Err: err}
	}
	s := &FileStore{baseDir: baseDir, tuning: collection.DefaultTuning()}
	blobs, _ := lru.New[string, []byte](256)
	s.blobs = blobs
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *FileStore) collectionDir(name string) string {
	return filepath.Join(s.baseDir, "collections", name)
}

func (s *FileStore) dataPath(name string) string {
	return filepath.Join(s.collectionDir(name), dataFileName)
}

// Save durably commits the full collection state. The IVF index is
// never included in the encoded form.
func (s *FileStore) Save(c *collection.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := encodeCollection(c)
	if err != nil {
		return vdberrors.SerializationError{Reason: err.Error()}
	}

	dir := s.collectionDir(c.Config.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return vdberrors.IOError{Op: "mkdir", Err: err}
	}
	if err := os.WriteFile(s.dataPath(c.Config.Name), blob, 0o644); err != nil {
		return vdberrors.IOError{Op: "write", Err: err}
	}

	if s.blobs != nil {
		s.blobs.Add(c.Config.Name, blob)
	}
	return nil
}

// Load returns a collection whose IVF index is empty and
// needs_rebuild is true for IVF collections, per the store contract.
func (s *FileStore) Load(name string) (*collection.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	if s.blobs != nil {
		if cached, ok := s.blobs.Get(name); ok {
			blob = cached
		}
	}
	if blob == nil {
		data, err := os.ReadFile(s.dataPath(name))
		if err != nil {
			if os.IsNotExist(err) {
				return nil, vdberrors.CollectionNotFoundError{Name: name}
			}
			return nil, vdberrors.IOError{Op: "read", Err: err}
		}
		blob = data
		if s.blobs != nil {
			s.blobs.Add(name, blob)
		}
	}

	c, err := decodeCollection(blob, s.tuning, s.pool, s.metrics)
	if err != nil {
		return nil, vdberrors.SerializationError{Reason: err.Error()}
	}
	return c, nil
}

// Delete removes a collection's persisted state. Deleting an unknown
// collection is not an error.
func (s *FileStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blobs != nil {
		s.blobs.Remove(name)
	}
	if err := os.RemoveAll(s.collectionDir(name)); err != nil {
		return vdberrors.IOError{Op: "remove", Err: err}
	}
	return nil
}

// List returns the names of every persisted collection.
func (s *FileStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root := filepath.Join(s.baseDir, "collections")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, vdberrors.IOError{Op: "readdir", Err: err}
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Exists reports whether a collection is currently persisted.
func (s *FileStore) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.blobs != nil {
		if _, ok := s.blobs.Get(name); ok {
			return true
		}
	}
	_, err := os.Stat(s.dataPath(name))
	return err == nil
}

var _ fmt.Stringer = (*FileStore)(nil)

// String identifies the store for logging.
func (s *FileStore) String() string { return fmt.Sprintf("store.FileStore(%s)", s.baseDir) }
