package dataset

import "errors"

// Sentinel kinds for dataset errors.
var (
	ErrUnknownVariable = errors.New("unknown variable")
	ErrUnknownLevel    = errors.New("unknown level")
	ErrKindMismatch    = errors.New("variable kind mismatch")
	ErrEmptySchema     = errors.New("empty or invalid schema")
	ErrRowShape        = errors.New("row shape mismatch")
)
