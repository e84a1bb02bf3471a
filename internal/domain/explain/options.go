package explain

import (
	"github.com/glassboxml/glassbox/internal/domain/aggregate"
	"github.com/glassboxml/glassbox/internal/domain/grid"
)

// Defaults for the top-level operations.
const (
	DefaultSampleN    = 500
	DefaultGridPoints = grid.DefaultPoints
)

type config struct {
	variables      []string
	observationIDs []string
	gridPoints     int
	sampleN        int
	seed           int64
	aggregation    aggregate.Kind
	variableType   string
	bandwidth      float64
}

// Option applies a configuration option to an explain operation.
type Option func(*config)

// WithVariables selects the variables to profile. Default: all variables.
func WithVariables(variables []string) Option {
	return func(c *config) {
		c.variables = append([]string(nil), variables...)
	}
}

// WithObservationIDs supplies ids for ceteris-paribus observations.
func WithObservationIDs(ids []string) Option {
	return func(c *config) {
		c.observationIDs = append([]string(nil), ids...)
	}
}

// WithGridPoints sets the grid resolution. Default 101.
func WithGridPoints(n int) Option {
	return func(c *config) {
		if n > 1 {
			c.gridPoints = n
		}
	}
}

// WithSampleN sets the number of observations sampled for partial
// dependence. Default 500; datasets smaller than N are used whole.
func WithSampleN(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.sampleN = n
		}
	}
}

// WithSeed fixes the sampling seed for reproducible output.
func WithSeed(seed int64) Option {
	return func(c *config) {
		c.seed = seed
	}
}

// WithAggregation selects the aggregation kind. Default partial.
func WithAggregation(kind aggregate.Kind) Option {
	return func(c *config) {
		if kind != "" {
			c.aggregation = kind
		}
	}
}

// WithVariableType restricts operations to numerical or categorical
// variables. Partial dependence defaults to numerical, aggregation of
// external points to all.
func WithVariableType(t string) Option {
	return func(c *config) {
		c.variableType = t
	}
}

// WithBandwidth sets the conditional-aggregation kernel bandwidth.
func WithBandwidth(h float64) Option {
	return func(c *config) {
		c.bandwidth = h
	}
}

func newConfig(opts ...Option) *config {
	c := &config{
		gridPoints:  DefaultGridPoints,
		sampleN:     DefaultSampleN,
		seed:        1,
		aggregation: aggregate.Partial,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) variableTypeOr(fallback string) string {
	if c.variableType != "" {
		return c.variableType
	}
	return fallback
}
