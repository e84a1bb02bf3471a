// Package repository defines the job store interface and errors.
package repository

import (
	"context"

	"github.com/glassboxml/glassbox/internal/domain/job"
)

// Store provides read/write access to submitted jobs and their results.
type Store interface {
	// Put stores a newly submitted job. Returns ErrDuplicateID when the
	// id is already present.
	Put(ctx context.Context, j *job.Job) error

	// Get returns the job with the given id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (*job.Job, error)

	// Recent returns up to n jobs ordered by submission time, newest
	// first. Returns ErrInvalidLimit when n < 1.
	Recent(ctx context.Context, n int) ([]*job.Job, error)

	// Count returns the number of stored jobs.
	Count(ctx context.Context) int

	// MarkRunning transitions a queued job to running.
	MarkRunning(ctx context.Context, id string) error

	// Complete stores the result tables and marks the job done.
	Complete(ctx context.Context, id string, res *job.Result) error

	// Fail marks the job failed with a cause.
	Fail(ctx context.Context, id string, cause string) error
}
