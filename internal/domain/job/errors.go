package job

import "errors"

var (
	// ErrEmptyDataset is returned when a spec carries no rows.
	ErrEmptyDataset = errors.New("empty dataset")

	// ErrUnknownTarget is returned when the target column is missing.
	ErrUnknownTarget = errors.New("unknown target column")

	// ErrNoOperations is returned when a spec requests nothing.
	ErrNoOperations = errors.New("no operations requested")

	// ErrUnknownOperation is returned for an unrecognized operation name.
	ErrUnknownOperation = errors.New("unknown operation")
)
