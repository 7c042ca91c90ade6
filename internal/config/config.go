package config

import (
	"github.com/mvp-joe/cakevars/internal/cache"
	"github.com/mvp-joe/cakevars/internal/indexer"
	"github.com/mvp-joe/cakevars/internal/indexer/viewvars"
)

// Config represents the complete cakevars configuration.
// It can be loaded from .cakevars/config.yml with environment variable overrides.
type Config struct {
	Paths   PathsConfig   `yaml:"paths" mapstructure:"paths"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
	Watch   WatchConfig   `yaml:"watch" mapstructure:"watch"`
}

// PathsConfig defines which files to index and which to ignore.
type PathsConfig struct {
	Controllers []string `yaml:"controllers" mapstructure:"controllers"` // glob patterns for controller files
	Ignore      []string `yaml:"ignore" mapstructure:"ignore"`           // glob patterns to ignore
}

// IndexConfig tunes extraction.
type IndexConfig struct {
	Workers    int    `yaml:"workers" mapstructure:"workers"`         // 0 = one per CPU
	TestSuffix string `yaml:"test_suffix" mapstructure:"test_suffix"` // file names ending in this are skipped
}

// StorageConfig defines where the index lives.
type StorageConfig struct {
	CacheLocation string `yaml:"cache_location" mapstructure:"cache_location"` // Override default ~/.cakevars/cache
}

// CacheConfig configures the in-process resolution cache.
type CacheConfig struct {
	Enabled  bool `yaml:"enabled" mapstructure:"enabled"`
	MaxFiles int  `yaml:"max_files" mapstructure:"max_files"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	DebounceMs int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Controllers: append([]string(nil), indexer.DefaultIncludePatterns...),
			Ignore:      append([]string(nil), indexer.DefaultIgnorePatterns...),
		},
		Index: IndexConfig{
			Workers:    0,
			TestSuffix: viewvars.DefaultTestSuffix,
		},
		Storage: StorageConfig{
			CacheLocation: "", // Empty means use default ~/.cakevars/cache
		},
		Cache: CacheConfig{
			Enabled:  true,
			MaxFiles: cache.DefaultMaxFiles,
		},
		Watch: WatchConfig{
			DebounceMs: int(indexer.DefaultDebounce.Milliseconds()),
		},
	}
}
