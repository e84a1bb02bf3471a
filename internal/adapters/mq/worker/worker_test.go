package worker_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glassboxml/glassbox/internal/adapters/mq/worker"
	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// Mock implementations for testing.
type mockQueue struct {
	jobChan    chan *job.Job
	closeOnce  sync.Once
	closeError error
}

func newMockQueue() *mockQueue {
	return &mockQueue{
		jobChan: make(chan *job.Job, 10),
	}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan *job.Job {
	return mq.jobChan
}

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.jobChan) })
	return mq.closeError
}

func (mq *mockQueue) addJob(j *job.Job) {
	mq.jobChan <- j
}

type mockRunner struct {
	mu      sync.Mutex
	results map[string]*job.Result
	errs    map[string]error
	ran     []string
}

func newMockRunner() *mockRunner {
	return &mockRunner{
		results: make(map[string]*job.Result),
		errs:    make(map[string]error),
	}
}

func (mr *mockRunner) Run(ctx context.Context, spec *job.Spec) (*job.Result, error) {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	mr.ran = append(mr.ran, spec.RequestID)
	if err, ok := mr.errs[spec.RequestID]; ok {
		return nil, err
	}
	if res, ok := mr.results[spec.RequestID]; ok {
		return res, nil
	}
	return &job.Result{}, nil
}

func (mr *mockRunner) ranIDs() []string {
	mr.mu.Lock()
	defer mr.mu.Unlock()
	return append([]string(nil), mr.ran...)
}

type mockStore struct {
	mu        sync.Mutex
	running   []string
	completed map[string]*job.Result
	failed    map[string]string
	markErr   error
}

func newMockStore() *mockStore {
	return &mockStore{
		completed: make(map[string]*job.Result),
		failed:    make(map[string]string),
	}
}

func (ms *mockStore) MarkRunning(ctx context.Context, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.markErr != nil {
		return ms.markErr
	}
	ms.running = append(ms.running, id)
	return nil
}

func (ms *mockStore) Complete(ctx context.Context, id string, res *job.Result) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.completed[id] = res
	return nil
}

func (ms *mockStore) Fail(ctx context.Context, id string, cause string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.failed[id] = cause
	return nil
}

func (ms *mockStore) completedResult(id string) (*job.Result, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	res, ok := ms.completed[id]
	return res, ok
}

func (ms *mockStore) failedCause(id string) (string, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	cause, ok := ms.failed[id]
	return cause, ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func queuedJob(id string) *job.Job {
	return &job.Job{
		ID:     id,
		Spec:   job.Spec{RequestID: id},
		Status: job.StatusQueued,
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a mock queue", t, func() {
		mq := newMockQueue()
		runner := newMockRunner()
		store := newMockStore()
		w := worker.NewInMemoryWorker(mq, runner, store, worker.WithName("worker-under-test"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a job succeeds", func() {
			runner.results["job-1"] = &job.Result{}
			mq.addJob(queuedJob("job-1"))

			waitFor(t, func() bool {
				_, ok := store.completedResult("job-1")
				return ok
			})

			convey.Convey("Then it was marked running and completed", func() {
				convey.So(runner.ranIDs(), convey.ShouldContain, "job-1")
				res, ok := store.completedResult("job-1")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(res, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the pipeline fails", func() {
			runner.errs["job-2"] = errors.New("bad spec")
			mq.addJob(queuedJob("job-2"))

			waitFor(t, func() bool {
				_, ok := store.failedCause("job-2")
				return ok
			})

			convey.Convey("Then the failure cause is stored", func() {
				cause, _ := store.failedCause("job-2")
				convey.So(cause, convey.ShouldContainSubstring, "bad spec")
				_, completed := store.completedResult("job-2")
				convey.So(completed, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When the queue channel closes", func() {
			_ = mq.Close()

			convey.Convey("Then shutdown returns promptly", func() {
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), time.Second)
				defer cancelShutdown()
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerProcessedCounter(t *testing.T) {
	convey.Convey("Given a worker sharing a processed counter", t, func() {
		mq := newMockQueue()
		runner := newMockRunner()
		store := newMockStore()
		var processed atomic.Int64
		w := worker.NewInMemoryWorker(mq, runner, store, worker.WithProcessedCounter(&processed))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs succeed and fail", func() {
			runner.errs["job-2"] = errors.New("bad input")
			mq.addJob(queuedJob("job-1"))
			mq.addJob(queuedJob("job-2"))

			waitFor(t, func() bool { return processed.Load() == 2 })

			convey.Convey("Then both count as processed", func() {
				convey.So(processed.Load(), convey.ShouldEqual, 2)
				_, doneOK := store.completedResult("job-1")
				convey.So(doneOK, convey.ShouldBeTrue)
				_, failOK := store.failedCause("job-2")
				convey.So(failOK, convey.ShouldBeTrue)
			})
		})
	})
}

func TestWorkerShutdownTimeout(t *testing.T) {
	convey.Convey("Given a worker that never started", t, func() {
		mq := newMockQueue()
		w := worker.NewInMemoryWorker(mq, newMockRunner(), newMockStore())

		convey.Convey("When shutdown has an expired context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			convey.Convey("Then shutdown reports the timeout", func() {
				err := w.Shutdown(ctx)
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of workers", t, func() {
		mq := newMockQueue()
		runner := newMockRunner()
		store := newMockStore()
		pool := worker.NewPool(4, mq, runner, store)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		pool.Start(ctx)

		convey.Convey("When several jobs are queued", func() {
			ids := []string{"job-a", "job-b", "job-c", "job-d", "job-e"}
			for _, id := range ids {
				mq.addJob(queuedJob(id))
			}

			waitFor(t, func() bool {
				for _, id := range ids {
					if _, ok := store.completedResult(id); !ok {
						return false
					}
				}
				return true
			})

			convey.Convey("Then every job completes exactly once", func() {
				convey.So(len(runner.ranIDs()), convey.ShouldEqual, len(ids))
			})
		})

		convey.Convey("When the pool shuts down", func() {
			err := pool.Shutdown(context.Background())

			convey.Convey("Then the queue was closed and no error returned", func() {
				convey.So(err, convey.ShouldBeNil)
			})
		})
	})
}
