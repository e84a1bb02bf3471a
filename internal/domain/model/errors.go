package model

import "errors"

var (
	// ErrUnknownKind is returned for an unrecognized model kind.
	ErrUnknownKind = errors.New("unknown model kind")

	// ErrNoObservations is returned when training data has no rows.
	ErrNoObservations = errors.New("no observations to fit")

	// ErrTargetLength is returned when targets and rows disagree in count.
	ErrTargetLength = errors.New("target length mismatch")

	// ErrUnderdetermined is returned when there are fewer rows than
	// coefficients to fit.
	ErrUnderdetermined = errors.New("underdetermined system")

	// ErrSingular is returned when the design matrix has no least-squares
	// solution.
	ErrSingular = errors.New("singular design matrix")
)
