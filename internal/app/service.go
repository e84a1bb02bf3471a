// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/glassboxml/glassbox/internal/adapters/mq/queue"
	workerpool "github.com/glassboxml/glassbox/internal/adapters/mq/worker"
	"github.com/glassboxml/glassbox/internal/adapters/repository"
	"github.com/glassboxml/glassbox/internal/domain/dedupe"
	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/internal/domain/model"
	"github.com/glassboxml/glassbox/internal/domain/pipeline"
	"github.com/glassboxml/glassbox/pkg/logger"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// Service implements the API dependencies for the explanation system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	jobQueue   jobqueue.Queue
	runner     *pipeline.Runner
	workerPool *workerpool.Pool

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	shardCount        int
	defaultModel      model.Kind
	defaultSampleN    int
	defaultGridPoints int
	kernelBandwidth   float64
	importanceRounds  int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithShardCount sets the number of job store shards.
func WithShardCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.shardCount = count
		}
	}
}

// WithDefaultModel sets the model kind fitted when a spec names none.
func WithDefaultModel(kind model.Kind) Option {
	return func(s *Service) {
		if kind != "" {
			s.defaultModel = kind
		}
	}
}

// WithDefaultSampleN sets the observation sample size applied to jobs
// that set none.
func WithDefaultSampleN(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultSampleN = n
		}
	}
}

// WithDefaultGridPoints sets the grid resolution applied to jobs that
// set none.
func WithDefaultGridPoints(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.defaultGridPoints = n
		}
	}
}

// WithKernelBandwidth sets the conditional-aggregation bandwidth
// applied to jobs that set none. Zero keeps the data-driven bandwidth.
func WithKernelBandwidth(h float64) Option {
	return func(s *Service) {
		if h > 0 {
			s.kernelBandwidth = h
		}
	}
}

// WithImportanceRounds sets the permutation rounds applied to
// importance jobs that set none.
func WithImportanceRounds(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.importanceRounds = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    1024,
		dedupeSize:   50000,
		shardCount:   16,
		defaultModel: model.Linear,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting explanation service...")

	shardedStore := repository.NewShardedStore(
		repository.WithShardCount(s.shardCount),
	)
	shardedStore.StartMetricsUpdater(ctx)
	s.store = shardedStore
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)
	s.runner = pipeline.NewRunner(
		pipeline.WithDefaultModel(s.defaultModel),
		pipeline.WithDefaultSampleN(s.defaultSampleN),
		pipeline.WithDefaultGridPoints(s.defaultGridPoints),
		pipeline.WithDefaultBandwidth(s.kernelBandwidth),
		pipeline.WithDefaultRounds(s.importanceRounds),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s.runner, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "explanation service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("shardCount", s.shardCount),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping explanation service...")

	if s.workerPool != nil {
		_ = s.workerPool.Shutdown(context.Background())
	}

	if q, ok := s.jobQueue.(*jobqueue.InMemoryQueue); ok {
		_ = q.Close()
	}

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "explanation service stopped")
}

// SeenAndRecord atomically checks if a request id was seen and records
// it if not. Returns true if the request was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes a request id from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Submit stores a job record for the spec and queues it for the
// workers. Returns ok=false on backpressure; the job record is removed
// again so a retry starts clean.
func (s *Service) Submit(ctx context.Context, spec *job.Spec) (string, bool) {
	j := &job.Job{
		ID:          uuid.NewString(),
		Spec:        *spec,
		Status:      job.StatusQueued,
		SubmittedAt: time.Now(),
	}

	if err := s.store.Put(ctx, j); err != nil {
		s.logger.Error(ctx, "storing job", logger.String("jobID", j.ID), logger.Error(err))
		return "", false
	}

	if ok := s.jobQueue.Enqueue(ctx, j); !ok {
		// Surface backpressure to the API; the stored record would
		// otherwise stay queued forever.
		if err := s.store.Fail(ctx, j.ID, "queue full"); err != nil {
			s.logger.Error(ctx, "marking job failed", logger.String("jobID", j.ID), logger.Error(err))
		}
		s.logger.Warn(ctx, "queue full, rejecting job",
			logger.String("jobID", j.ID),
			logger.String("requestID", spec.RequestID),
		)
		return "", false
	}

	metrics.UpdateQueueSize(s.jobQueue.Len(ctx))
	metrics.UpdateTotalJobs(s.store.Count(ctx))
	s.logger.Debug(ctx, "job queued",
		logger.String("jobID", j.ID),
		logger.String("requestID", spec.RequestID),
	)
	return j.ID, true
}

// GetJob returns the stored job with the given id.
func (s *Service) GetJob(ctx context.Context, id string) (*job.Job, error) {
	return s.store.Get(ctx, id)
}

// RecentJobs returns up to n jobs, newest first.
func (s *Service) RecentJobs(ctx context.Context, n int) ([]*job.Job, error) {
	return s.store.Recent(ctx, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"shardCount":  s.shardCount,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		totalJobs := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalJobs"] = totalJobs

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalJobs(totalJobs)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
