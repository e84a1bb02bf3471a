// Package worker runs queued explanation jobs and writes their results
// to the repository.
package worker

import (
	"sync/atomic"

	"github.com/glassboxml/glassbox/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithProcessedCounter shares a counter the worker bumps per processed
// job. The pool uses it for the jobs-per-second gauge.
func WithProcessedCounter(c *atomic.Int64) Option {
	return func(w *InMemoryWorker) {
		w.processed = c
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(logger logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if logger != nil {
			w.logger = logger
		}
	}
}
