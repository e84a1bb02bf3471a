// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment sources on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// JobQueueSize bounds the in-memory job queue.
	JobQueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of explanation workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the request-id deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// ShardCount configures the number of shards in the job store.
	ShardCount int `koanf:"shard_count"`

	// MaxListLimit caps GET /explanations?limit.
	MaxListLimit int `koanf:"max_list_limit"`

	// MaxDatasetRows rejects submissions whose dataset has more rows.
	MaxDatasetRows int `koanf:"max_dataset_rows"`

	// MaxDatasetCols rejects submissions whose dataset has more columns.
	MaxDatasetCols int `koanf:"max_dataset_cols"`

	// DefaultModel is the model kind fitted when a job names none.
	DefaultModel string `koanf:"default_model"`

	// DefaultSampleN is the partial dependence sample size when a job
	// does not set one.
	DefaultSampleN int `koanf:"default_sample_n"`

	// DefaultGridPoints is the grid resolution when a job does not set
	// one.
	DefaultGridPoints int `koanf:"default_grid_points"`

	// KernelBandwidth overrides the conditional-aggregation bandwidth.
	// Zero means the data-driven default.
	KernelBandwidth float64 `koanf:"kernel_bandwidth"`

	// ImportanceRounds sets the permutation rounds for importance jobs
	// that do not set their own.
	ImportanceRounds int `koanf:"importance_rounds"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		Addr:              ":9080",
		JobQueueSize:      1024,
		WorkerCount:       runtime.NumCPU() * 2,
		DedupeSize:        50_000,
		ShardCount:        16,
		MaxListLimit:      100,
		MaxDatasetRows:    100_000,
		MaxDatasetCols:    200,
		DefaultModel:      "linear",
		DefaultSampleN:    500,
		DefaultGridPoints: 101,
		ImportanceRounds:  10,
	}
}
