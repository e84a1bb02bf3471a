// Package repository defines the job store interface and errors.
package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// Sharded, in-memory Store implementation.
//
// Jobs are spread over shards by an FNV hash of the id so concurrent
// workers and HTTP readers contend on separate locks. Recency ordering
// is reconstructed on read from submission timestamps; writes stay O(1).

// Default sharded store configuration.
const (
	defaultShardCount      = 16
	defaultMetricsInterval = 5 * time.Second
)

type shard struct {
	mu   sync.RWMutex
	jobs map[string]*storedJob
}

// storedJob pairs the record with its insert sequence so Recent is
// stable when timestamps collide.
type storedJob struct {
	job *job.Job
	seq uint64
}

// ShardedStore implements Store over a fixed set of shards.
type ShardedStore struct {
	shards     []*shard
	shardCount int

	seqMu sync.Mutex
	seq   uint64

	metricsUpdateInterval time.Duration
}

// NewShardedStore creates a store with configuration options.
func NewShardedStore(opts ...Option) *ShardedStore {
	s := &ShardedStore{
		shardCount:            defaultShardCount,
		metricsUpdateInterval: defaultMetricsInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.shards = make([]*shard, s.shardCount)
	for i := range s.shards {
		s.shards[i] = &shard{jobs: make(map[string]*storedJob)}
	}

	metrics.UpdateRepositoryShardCount(s.shardCount)
	metrics.UpdateRepositoryRecordsTotal(0)
	return s
}

func (s *ShardedStore) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return s.shards[int(h.Sum32())%len(s.shards)]
}

func (s *ShardedStore) nextSeq() uint64 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	s.seq++
	return s.seq
}

// Put stores a newly submitted job.
func (s *ShardedStore) Put(ctx context.Context, j *job.Job) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(j.ID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	if _, exists := sh.jobs[j.ID]; exists {
		return ErrDuplicateID
	}
	stored := *j
	if stored.SubmittedAt.IsZero() {
		stored.SubmittedAt = time.Now()
	}
	if stored.Status == "" {
		stored.Status = job.StatusQueued
	}
	sh.jobs[j.ID] = &storedJob{job: &stored, seq: s.nextSeq()}
	return nil
}

// Get returns a copy of the job with the given id.
func (s *ShardedStore) Get(ctx context.Context, id string) (*job.Job, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	stored, ok := sh.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *stored.job
	return &cp, nil
}

// Recent returns up to n jobs, newest submission first.
func (s *ShardedStore) Recent(ctx context.Context, n int) ([]*job.Job, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		return nil, ErrInvalidLimit
	}

	// Copy records while the shard lock is held; update mutates the
	// stored structs in place, so the pointers must not escape the lock.
	type entry struct {
		job job.Job
		seq uint64
	}
	var all []entry
	for _, sh := range s.shards {
		sh.mu.RLock()
		for _, stored := range sh.jobs {
			all = append(all, entry{job: *stored.job, seq: stored.seq})
		}
		sh.mu.RUnlock()
	}

	sort.Slice(all, func(i, j int) bool {
		if !all[i].job.SubmittedAt.Equal(all[j].job.SubmittedAt) {
			return all[i].job.SubmittedAt.After(all[j].job.SubmittedAt)
		}
		return all[i].seq > all[j].seq
	})

	if n > len(all) {
		n = len(all)
	}
	out := make([]*job.Job, n)
	for i := 0; i < n; i++ {
		out[i] = &all[i].job
	}
	return out, nil
}

// Count returns the number of stored jobs.
func (s *ShardedStore) Count(ctx context.Context) int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.jobs)
		sh.mu.RUnlock()
	}
	metrics.UpdateRepositoryRecordsTotal(total)
	return total
}

// MarkRunning transitions a queued job to running.
func (s *ShardedStore) MarkRunning(ctx context.Context, id string) error {
	return s.update(id, func(j *job.Job) {
		j.Status = job.StatusRunning
		j.StartedAt = time.Now()
	})
}

// Complete stores the result tables and marks the job done.
func (s *ShardedStore) Complete(ctx context.Context, id string, res *job.Result) error {
	return s.update(id, func(j *job.Job) {
		j.Status = job.StatusDone
		j.Result = res
		j.FinishedAt = time.Now()
	})
}

// Fail marks the job failed with a cause.
func (s *ShardedStore) Fail(ctx context.Context, id string, cause string) error {
	return s.update(id, func(j *job.Job) {
		j.Status = job.StatusFailed
		j.Error = cause
		j.FinishedAt = time.Now()
	})
}

func (s *ShardedStore) update(id string, apply func(*job.Job)) error {
	start := time.Now()
	defer func() {
		metrics.RecordRepositoryUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	sh := s.shardFor(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	stored, ok := sh.jobs[id]
	if !ok {
		return ErrNotFound
	}
	apply(stored.job)
	return nil
}

// StartMetricsUpdater publishes per-shard gauges until ctx is canceled.
func (s *ShardedStore) StartMetricsUpdater(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.publishShardGauges()
			}
		}
	}()
}

func (s *ShardedStore) publishShardGauges() {
	total := 0
	for i, sh := range s.shards {
		sh.mu.RLock()
		count := len(sh.jobs)
		sh.mu.RUnlock()
		total += count
		metrics.UpdateRepositoryRecordsPerShard(strconv.Itoa(i), count)
	}
	metrics.UpdateRepositoryRecordsTotal(total)
}
