package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GLASSBOX_CONFIG is set
//  3. env (prefix GLASSBOX_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("GLASSBOX_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GLASSBOX_ADDR, GLASSBOX_QUEUE_SIZE, ...
	// Keys map to the koanf tags on the struct with underscores kept.
	envProvider := env.Provider("GLASSBOX_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "glassbox_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.JobQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive", ErrInvalidConfig)
	case c.DefaultGridPoints < 2:
		return fmt.Errorf("%w: default_grid_points must be at least 2", ErrInvalidConfig)
	case c.KernelBandwidth < 0:
		return fmt.Errorf("%w: kernel_bandwidth must not be negative", ErrInvalidConfig)
	case c.MaxDatasetRows < 1:
		return fmt.Errorf("%w: max_dataset_rows must be positive", ErrInvalidConfig)
	case c.MaxDatasetCols < 1:
		return fmt.Errorf("%w: max_dataset_cols must be positive", ErrInvalidConfig)
	}
	return nil
}
