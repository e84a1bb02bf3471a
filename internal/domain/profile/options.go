// Package profile generates ceteris-paribus profiles.
package profile

import "strconv"

type config struct {
	label string
	ids   []string
}

// Option applies a configuration option to Generate.
type Option func(*config)

// WithLabel tags every produced point with a model label.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithObservationIDs supplies explicit observation ids, positional by row.
// Rows beyond the supplied ids fall back to their index.
func WithObservationIDs(ids []string) Option {
	return func(c *config) {
		c.ids = ids
	}
}

func newConfig(opts ...Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *config) observationID(row int) string {
	if row < len(c.ids) && c.ids[row] != "" {
		return c.ids[row]
	}
	return strconv.Itoa(row)
}
