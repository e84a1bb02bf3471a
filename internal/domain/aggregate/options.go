package aggregate

import (
	"fmt"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/profile"
)

type config struct {
	kind         Kind
	variableType string
	variables    map[string]struct{}
	requested    []string
	bandwidth    float64
}

// Option applies a configuration option to Aggregate.
type Option func(*config)

// WithKind selects the aggregation flavour. Default is partial.
func WithKind(kind Kind) Option {
	return func(c *config) {
		c.kind = kind
	}
}

// WithVariableType restricts aggregation to numerical or categorical
// variables. Default is all.
func WithVariableType(t string) Option {
	return func(c *config) {
		if t != "" {
			c.variableType = t
		}
	}
}

// WithVariables restricts aggregation to the named variables. Aggregation
// fails with ErrEmptyProfileSet when a named variable has no points.
func WithVariables(variables []string) Option {
	return func(c *config) {
		if len(variables) == 0 {
			return
		}
		c.requested = append([]string(nil), variables...)
		c.variables = make(map[string]struct{}, len(variables))
		for _, v := range variables {
			c.variables[v] = struct{}{}
		}
	}
}

// WithBandwidth sets the kernel bandwidth for conditional aggregation.
// Non-positive means Silverman's rule of thumb over the origin values.
func WithBandwidth(h float64) Option {
	return func(c *config) {
		c.bandwidth = h
	}
}

func newConfig(opts ...Option) (*config, error) {
	c := &config{kind: Partial, variableType: FilterAll}
	for _, opt := range opts {
		opt(c)
	}
	switch c.kind {
	case Partial, Conditional, Accumulated:
	default:
		return nil, fmt.Errorf("aggregate: %w: kind %q", ErrInvalidKind, c.kind)
	}
	switch c.variableType {
	case FilterAll, FilterNumerical, FilterCategorical:
	default:
		return nil, fmt.Errorf("aggregate: %w: variable type %q", ErrInvalidKind, c.variableType)
	}
	return c, nil
}

func (c *config) accepts(p profile.Point) bool {
	switch c.variableType {
	case FilterNumerical:
		if p.Kind != dataset.Numerical {
			return false
		}
	case FilterCategorical:
		if p.Kind != dataset.Categorical {
			return false
		}
	}
	if c.variables != nil {
		if _, ok := c.variables[p.Variable]; !ok {
			return false
		}
	}
	return true
}

func (c *config) checkRequested(groups map[groupKey]*group) error {
	for _, v := range c.requested {
		found := false
		for key := range groups {
			if key.variable == v {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("aggregate: %w: variable %q", ErrEmptyProfileSet, v)
		}
	}
	return nil
}
