package profile

import "errors"

// Sentinel kinds for profile errors.
var (
	ErrPredictionFailure = errors.New("prediction failure")
	ErrNoObservations    = errors.New("no observations")
)
