// Package pipeline runs the explanation routines a job requests:
// fit the built-in model, wrap it, then compute each result table.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/glassboxml/glassbox/internal/domain/aggregate"
	"github.com/glassboxml/glassbox/internal/domain/explain"
	"github.com/glassboxml/glassbox/internal/domain/importance"
	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/internal/domain/model"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// Runner executes job specs. It is stateless and safe for concurrent
// use; aggregation for one job always runs inside a single call.
type Runner struct {
	defaultModel model.Kind

	// Service-level fallbacks for job options left unset. Zero means
	// the package defaults apply.
	defaultSampleN    int
	defaultGridPoints int
	defaultBandwidth  float64
	defaultRounds     int
}

// NewRunner creates a runner with configuration options.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		defaultModel: model.Linear,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run validates the spec, fits the model, and computes every requested
// operation. A failure in any operation fails the whole job.
func (r *Runner) Run(ctx context.Context, spec *job.Spec) (*job.Result, error) {
	start := time.Now()
	defer func() {
		metrics.RecordJobDuration(float64(time.Since(start).Milliseconds()))
	}()

	if err := spec.Validate(); err != nil {
		return nil, err
	}

	features, target, err := spec.Data.SplitTarget(spec.Target)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	kind := spec.Model
	if kind == "" {
		kind = r.defaultModel
	}
	m, err := model.Train(kind, features, target)
	if err != nil {
		return nil, err
	}
	exp := explain.Adapt(m, features, target)

	res := &job.Result{}
	for _, op := range spec.Operations {
		switch op {
		case job.OpPartialDependence:
			profiles, err := explain.PartialDependence(ctx, exp, r.profileOptions(spec.Options)...)
			if err != nil {
				return nil, err
			}
			res.Profiles = append(res.Profiles, profiles...)
		case job.OpCeterisParibus:
			observations := spec.Observations
			if observations == nil {
				observations = features
			}
			points, err := explain.CeterisParibus(ctx, exp, observations, r.profileOptions(spec.Options)...)
			if err != nil {
				return nil, err
			}
			res.Points = append(res.Points, points...)
		case job.OpImportance:
			scores, err := importance.Compute(ctx, exp, r.importanceOptions(spec.Options)...)
			if err != nil {
				return nil, err
			}
			res.Importance = append(res.Importance, scores...)
		default:
			return nil, fmt.Errorf("pipeline: %q: %w", op, job.ErrUnknownOperation)
		}
	}
	return res, nil
}

// profileOptions maps job options to explain options. Job values win,
// then the runner fallbacks, then the explain package defaults.
func (r *Runner) profileOptions(o job.Options) []explain.Option {
	var opts []explain.Option
	if o.Variables != nil {
		opts = append(opts, explain.WithVariables(o.Variables))
	}
	if o.ObservationIDs != nil {
		opts = append(opts, explain.WithObservationIDs(o.ObservationIDs))
	}
	switch {
	case o.GridPoints > 0:
		opts = append(opts, explain.WithGridPoints(o.GridPoints))
	case r.defaultGridPoints > 0:
		opts = append(opts, explain.WithGridPoints(r.defaultGridPoints))
	}
	switch {
	case o.SampleN > 0:
		opts = append(opts, explain.WithSampleN(o.SampleN))
	case r.defaultSampleN > 0:
		opts = append(opts, explain.WithSampleN(r.defaultSampleN))
	}
	if o.Seed != 0 {
		opts = append(opts, explain.WithSeed(o.Seed))
	}
	if o.Aggregation != "" {
		opts = append(opts, explain.WithAggregation(aggregate.Kind(o.Aggregation)))
	}
	if o.VariableType != "" {
		opts = append(opts, explain.WithVariableType(o.VariableType))
	}
	switch {
	case o.Bandwidth > 0:
		opts = append(opts, explain.WithBandwidth(o.Bandwidth))
	case r.defaultBandwidth > 0:
		opts = append(opts, explain.WithBandwidth(r.defaultBandwidth))
	}
	return opts
}

func (r *Runner) importanceOptions(o job.Options) []importance.Option {
	var opts []importance.Option
	if o.Variables != nil {
		opts = append(opts, importance.WithVariables(o.Variables))
	}
	switch {
	case o.SampleN > 0:
		opts = append(opts, importance.WithSampleN(o.SampleN))
	case r.defaultSampleN > 0:
		opts = append(opts, importance.WithSampleN(r.defaultSampleN))
	}
	if o.Seed != 0 {
		opts = append(opts, importance.WithSeed(o.Seed))
	}
	switch {
	case o.Rounds > 0:
		opts = append(opts, importance.WithRounds(o.Rounds))
	case r.defaultRounds > 0:
		opts = append(opts, importance.WithRounds(r.defaultRounds))
	}
	return opts
}
