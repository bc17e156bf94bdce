package meta

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration for building a Store.
type Config struct {
	// CacheDir is where fetched payloads are persisted. Empty disables
	// the disk cache.
	CacheDir string `yaml:"cache_dir"`

	// Subgraphs are the endpoints queried on a cache miss.
	Subgraphs []string `yaml:"subgraphs"`

	// TimeoutSeconds bounds each subgraph request.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{TimeoutSeconds: 30}
}

// LoadConfig reads a yaml configuration file. A missing file yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 30
	}
	return cfg, nil
}

// NewStoreFromConfig builds a store from a configuration.
func NewStoreFromConfig(cfg Config, opts ...StoreOption) (*Store, error) {
	if cfg.CacheDir != "" {
		dc, err := NewDiskCache(cfg.CacheDir)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDiskCache(dc))
	}
	opts = append(opts,
		WithSubgraphs(cfg.Subgraphs),
		WithFetchTimeout(time.Duration(cfg.TimeoutSeconds)*time.Second))
	return NewStore(opts...), nil
}
