// Package explain exposes the top-level explanation operations: partial
// dependence, ceteris-paribus profiles, and profile aggregation for an
// arbitrary model wrapped behind an ExplainerLike capability set.
package explain

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/glassboxml/glassbox/internal/domain/aggregate"
	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/grid"
	"github.com/glassboxml/glassbox/internal/domain/profile"
)

// ExplainerLike is the capability set the operations need from a model
// wrapper: training data, a prediction function, a display label, and
// the observed target values. Target may return nil; operations that
// need it say so.
type ExplainerLike interface {
	TrainData() *dataset.Dataset
	PredictFunc() profile.PredictFunc
	Label() string
	Target() []float64
}

// Explainer adapts caller-supplied data and a prediction function.
type Explainer struct {
	Data    *dataset.Dataset
	Predict profile.PredictFunc
	Name    string
	Y       []float64
}

// TrainData returns the wrapped training dataset.
func (e *Explainer) TrainData() *dataset.Dataset { return e.Data }

// PredictFunc returns the wrapped prediction capability.
func (e *Explainer) PredictFunc() profile.PredictFunc { return e.Predict }

// Target returns the observed target values, nil when not supplied.
func (e *Explainer) Target() []float64 { return e.Y }

// Label returns the display label, defaulting to "model".
func (e *Explainer) Label() string {
	if e.Name == "" {
		return "model"
	}
	return e.Name
}

// Predictor is the behaviour built-in models expose.
type Predictor interface {
	Predict(ctx context.Context, ds *dataset.Dataset) ([]float64, error)
	Label() string
}

// Adapt wraps a Predictor as an ExplainerLike over the given data.
// Target values are optional; pass them when feature importance will
// be computed against observed outcomes.
func Adapt(m Predictor, data *dataset.Dataset, target ...[]float64) *Explainer {
	e := &Explainer{
		Data:    data,
		Predict: m.Predict,
		Name:    m.Label(),
	}
	if len(target) > 0 {
		e.Y = target[0]
	}
	return e
}

// PartialDependence sweeps each selected variable across its grid on a
// sample of the training data, predicts every substituted row, and
// aggregates the resulting profiles into one curve per variable.
func PartialDependence(ctx context.Context, exp ExplainerLike, opts ...Option) ([]aggregate.Profile, error) {
	cfg := newConfig(opts...)

	data := exp.TrainData()
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("explain: %w", profile.ErrNoObservations)
	}

	grids, err := grid.BuildAll(data, cfg.variables, cfg.gridPoints)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	sample := data.Sample(cfg.sampleN, rand.New(rand.NewSource(cfg.seed)))
	points, err := profile.Generate(ctx, exp.PredictFunc(), sample, grids,
		profile.WithLabel(exp.Label()))
	if err != nil {
		return nil, err
	}

	return aggregate.Aggregate(points,
		aggregate.WithKind(cfg.aggregation),
		aggregate.WithVariableType(cfg.variableTypeOr(aggregate.FilterNumerical)),
		aggregate.WithBandwidth(cfg.bandwidth),
	)
}

// CeterisParibus computes per-observation profiles for the given
// observations, without aggregation.
func CeterisParibus(ctx context.Context, exp ExplainerLike, observations *dataset.Dataset, opts ...Option) ([]profile.Point, error) {
	cfg := newConfig(opts...)

	data := exp.TrainData()
	if data == nil || data.NumRows() == 0 {
		return nil, fmt.Errorf("explain: %w", profile.ErrNoObservations)
	}

	// Grids come from the training distribution, not from the handful of
	// observations being explained.
	grids, err := grid.BuildAll(data, cfg.variables, cfg.gridPoints)
	if err != nil {
		return nil, fmt.Errorf("explain: %w", err)
	}

	return profile.Generate(ctx, exp.PredictFunc(), observations, grids,
		profile.WithLabel(exp.Label()),
		profile.WithObservationIDs(cfg.observationIDs),
	)
}

// AggregateProfiles aggregates externally produced profile points.
func AggregateProfiles(points []profile.Point, opts ...Option) ([]aggregate.Profile, error) {
	cfg := newConfig(opts...)
	return aggregate.Aggregate(points,
		aggregate.WithKind(cfg.aggregation),
		aggregate.WithVariableType(cfg.variableTypeOr(aggregate.FilterAll)),
		aggregate.WithVariables(cfg.variables),
		aggregate.WithBandwidth(cfg.bandwidth),
	)
}
