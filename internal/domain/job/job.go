// Package job contains the explanation job records passed between layers.
package job

import (
	"fmt"
	"time"

	"github.com/glassboxml/glassbox/internal/domain/aggregate"
	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/importance"
	"github.com/glassboxml/glassbox/internal/domain/model"
	"github.com/glassboxml/glassbox/internal/domain/profile"
)

// Status is the lifecycle state of a job.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// Operation names one explanation routine a job can request.
type Operation string

const (
	OpPartialDependence Operation = "partial_dependence"
	OpCeterisParibus    Operation = "ceteris_paribus"
	OpImportance        Operation = "importance"
)

// Options carries the per-job pipeline knobs. Zero values mean
// package defaults.
type Options struct {
	Variables      []string `json:"variables,omitempty"`
	ObservationIDs []string `json:"observation_ids,omitempty"`
	GridPoints     int      `json:"grid_points,omitempty"`
	SampleN        int      `json:"sample_n,omitempty"`
	Seed           int64    `json:"seed,omitempty"`
	Aggregation    string   `json:"aggregation,omitempty"`
	VariableType   string   `json:"variable_type,omitempty"`
	Bandwidth      float64  `json:"bandwidth,omitempty"`
	Rounds         int      `json:"rounds,omitempty"`
}

// Spec is a submitted explanation request: the data, the model to fit
// on it, and the routines to run.
type Spec struct {
	RequestID    string     // client id for idempotency
	Model        model.Kind // built-in model kind to fit
	Target       string     // target column name inside Data
	Operations   []Operation
	Options      Options
	Data         *dataset.Dataset
	Observations *dataset.Dataset // rows to explain, ceteris paribus only
}

// Validate checks the spec before it is queued.
func (s *Spec) Validate() error {
	if s.Data == nil || s.Data.NumRows() == 0 {
		return fmt.Errorf("job: %w", ErrEmptyDataset)
	}
	if s.Target == "" || !s.Data.Has(s.Target) {
		return fmt.Errorf("job: target %q: %w", s.Target, ErrUnknownTarget)
	}
	if len(s.Operations) == 0 {
		return fmt.Errorf("job: %w", ErrNoOperations)
	}
	for _, op := range s.Operations {
		switch op {
		case OpPartialDependence, OpCeterisParibus, OpImportance:
		default:
			return fmt.Errorf("job: %q: %w", op, ErrUnknownOperation)
		}
	}
	return nil
}

// Result collects the output tables of a finished job, one per
// requested operation.
type Result struct {
	Profiles   []aggregate.Profile `json:"profiles,omitempty"`
	Points     []profile.Point     `json:"points,omitempty"`
	Importance []importance.Score  `json:"importance,omitempty"`
}

// Job is the stored record for one submitted spec.
type Job struct {
	ID          string
	Spec        Spec
	Status      Status
	Error       string
	SubmittedAt time.Time
	StartedAt   time.Time
	FinishedAt  time.Time
	Result      *Result
}
