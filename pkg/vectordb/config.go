package vectordb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/monishSR/vectordb/internal/collection"
)

// Config is the top-level, user-facing configuration for a Cache: how
// many collections may be resident at once and the tuning knobs every
// loaded or created collection inherits. KMeansMaxIter and
// KMeansTolerance are carried into each collection's tuning but the
// IVF build does not read them: it always trains with the k-means
// package defaults (50 iterations, tolerance 1e-4).
type Config struct {
	MaxCached         int     `yaml:"max_cached"`
	IVFNProbe         int     `yaml:"ivf_nprobe"`
	KMeansMaxIter     int     `yaml:"kmeans_max_iter"`
	KMeansTolerance   float32 `yaml:"kmeans_tolerance"`
	RebuildDirtyRatio float64 `yaml:"rebuild_dirty_ratio"`
	RebuildDirtyFloor int     `yaml:"rebuild_dirty_floor"`
}

// DefaultConfig matches the defaults in the configuration table.
func DefaultConfig() Config {
	return Config{
		MaxCached:         20,
		IVFNProbe:         4,
		KMeansMaxIter:     50,
		KMeansTolerance:   1e-4,
		RebuildDirtyRatio: 0.10,
		RebuildDirtyFloor: 10,
	}
}

// LoadConfig reads a YAML configuration file, starting from
// DefaultConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (cfg Config) tuning() collection.Tuning {
	return collection.Tuning{
		NProbe:            cfg.IVFNProbe,
		KMeansMaxIter:     cfg.KMeansMaxIter,
		KMeansTolerance:   cfg.KMeansTolerance,
		RebuildDirtyRatio: cfg.RebuildDirtyRatio,
		RebuildDirtyFloor: cfg.RebuildDirtyFloor,
	}
}
