package grid

import "errors"

// Sentinel kinds for grid errors.
var (
	ErrEmptyGrid = errors.New("empty grid")
)
