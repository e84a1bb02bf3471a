// Package model provides the built-in predictors used when a job
// uploads a dataset instead of supplying its own prediction callback.
package model

import (
	"context"
	"fmt"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
)

// Kind names a built-in predictor.
type Kind string

const (
	// Linear is an ordinary least-squares model with one-hot encoded
	// categorical features.
	Linear Kind = "linear"
	// Mean always predicts the training-target mean.
	Mean Kind = "mean"
)

// Predictor scores a dataset. All built-in models and caller-supplied
// wrappers satisfy it.
type Predictor interface {
	Predict(ctx context.Context, ds *dataset.Dataset) ([]float64, error)
	Label() string
}

// Train fits the named model kind on the dataset against the target.
func Train(kind Kind, ds *dataset.Dataset, target []float64) (Predictor, error) {
	if ds == nil || ds.NumRows() == 0 {
		return nil, fmt.Errorf("model: %w", ErrNoObservations)
	}
	if len(target) != ds.NumRows() {
		return nil, fmt.Errorf("model: %d target values for %d rows: %w",
			len(target), ds.NumRows(), ErrTargetLength)
	}
	switch kind {
	case Linear:
		return TrainLinear(ds, target)
	case Mean:
		return TrainMean(target), nil
	default:
		return nil, fmt.Errorf("model: %q: %w", kind, ErrUnknownKind)
	}
}
