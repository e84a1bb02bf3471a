package queue

import "errors"

var (
	// ErrClosed is returned by callers that need an error value for a
	// refused enqueue after Close.
	ErrClosed = errors.New("queue closed")
)
