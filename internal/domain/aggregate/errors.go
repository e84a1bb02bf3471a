package aggregate

import "errors"

// Sentinel kinds for aggregation errors.
var (
	ErrEmptyProfileSet = errors.New("empty profile set")
	ErrInvalidKind     = errors.New("invalid configuration")
)
