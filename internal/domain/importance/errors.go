package importance

import "errors"

var (
	// ErrNoObservations is returned when the explainer carries no rows.
	ErrNoObservations = errors.New("no observations to score")

	// ErrNoTarget is returned when the explainer has no target values.
	ErrNoTarget = errors.New("no target values")

	// ErrTargetLength is returned when targets and rows disagree in count.
	ErrTargetLength = errors.New("target length mismatch")
)
