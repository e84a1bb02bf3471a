package pipeline

import "github.com/glassboxml/glassbox/internal/domain/model"

// Option applies a configuration option to the Runner.
type Option func(*Runner)

// WithDefaultModel sets the model kind used when a spec names none.
func WithDefaultModel(kind model.Kind) Option {
	return func(r *Runner) {
		if kind != "" {
			r.defaultModel = kind
		}
	}
}

// WithDefaultSampleN sets the observation sample size used when a job
// sets none.
func WithDefaultSampleN(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.defaultSampleN = n
		}
	}
}

// WithDefaultGridPoints sets the grid resolution used when a job sets
// none.
func WithDefaultGridPoints(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.defaultGridPoints = n
		}
	}
}

// WithDefaultBandwidth sets the conditional-aggregation bandwidth used
// when a job sets none. Zero keeps the data-driven bandwidth.
func WithDefaultBandwidth(h float64) Option {
	return func(r *Runner) {
		if h > 0 {
			r.defaultBandwidth = h
		}
	}
}

// WithDefaultRounds sets the permutation rounds used when an
// importance job sets none.
func WithDefaultRounds(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.defaultRounds = n
		}
	}
}
