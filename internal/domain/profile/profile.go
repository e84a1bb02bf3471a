// Package profile generates ceteris-paribus (individual conditional
// expectation) profiles: per-observation prediction curves obtained by
// sweeping one variable across its grid while holding the others fixed.
package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/grid"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// PredictFunc is the opaque model capability: one numeric prediction per row.
type PredictFunc func(ctx context.Context, ds *dataset.Dataset) ([]float64, error)

// Point is one profile point: the prediction for one observation with one
// variable substituted by one grid value.
type Point struct {
	ObservationID string       `json:"observation_id"`
	Variable      string       `json:"variable"`
	Kind          dataset.Kind `json:"kind"`

	// Value is the substituted grid value; Level is set instead for
	// categorical variables.
	Value float64 `json:"value"`
	Level string  `json:"level,omitempty"`

	// Origin is the observation's own value of the variable, used by
	// conditional and accumulated aggregation.
	Origin      float64 `json:"origin"`
	OriginLevel string  `json:"origin_level,omitempty"`

	Prediction float64 `json:"prediction"`
	Label      string  `json:"label"`
}

// Generate computes profile points for every (observation, variable, grid
// value) combination, in that ordering. All grid values of one
// (observation, variable) pair are batched into a single prediction call.
// Any prediction failure aborts the whole call with no partial output.
func Generate(ctx context.Context, predict PredictFunc, observations *dataset.Dataset, grids []grid.Grid, opts ...Option) ([]Point, error) {
	cfg := newConfig(opts...)

	if predict == nil {
		return nil, fmt.Errorf("profile: %w: nil predict function", ErrPredictionFailure)
	}
	if observations == nil || observations.NumRows() == 0 {
		return nil, fmt.Errorf("profile: %w", ErrNoObservations)
	}

	var points []Point
	for row := 0; row < observations.NumRows(); row++ {
		obsID := cfg.observationID(row)
		for _, g := range grids {
			if g.Points() == 0 {
				continue
			}
			vals := make([]dataset.Value, g.Points())
			for i := range vals {
				vals[i] = g.Value(i)
			}
			modified, err := observations.Substituted(row, g.Variable, vals)
			if err != nil {
				return nil, fmt.Errorf("profile: %w", err)
			}

			preds, err := predictBatch(ctx, predict, modified)
			if err != nil {
				return nil, err
			}
			if len(preds) != g.Points() {
				metrics.RecordPredictionError()
				return nil, fmt.Errorf("profile: %w: got %d predictions for %d rows",
					ErrPredictionFailure, len(preds), g.Points())
			}

			origin, _ := observations.At(row, g.Variable)
			for i := range preds {
				p := Point{
					ObservationID: obsID,
					Variable:      g.Variable,
					Kind:          g.Kind,
					Prediction:    preds[i],
					Label:         cfg.label,
				}
				if g.Kind == dataset.Categorical {
					p.Level = g.Levels[i]
					p.OriginLevel = origin.Level
				} else {
					p.Value = g.Values[i]
					p.Origin = origin.Num
				}
				points = append(points, p)
			}
		}
	}

	metrics.AddProfilePoints(len(points))
	return points, nil
}

func predictBatch(ctx context.Context, predict PredictFunc, ds *dataset.Dataset) ([]float64, error) {
	start := time.Now()
	preds, err := predict(ctx, ds)
	metrics.RecordPredictionBatch()
	metrics.RecordPredictionLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordPredictionError()
		return nil, fmt.Errorf("profile: %w: %v", ErrPredictionFailure, err)
	}
	return preds, nil
}
