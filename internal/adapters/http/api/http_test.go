package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/glassboxml/glassbox/internal/adapters/http/api"
	"github.com/glassboxml/glassbox/internal/adapters/repository"
	"github.com/glassboxml/glassbox/internal/domain/job"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps implements api.Dependencies for handler tests.
type mockDeps struct {
	seen          map[string]bool
	submitOK      bool
	submitted     []*job.Spec
	jobs          map[string]*job.Job
	recent        []*job.Job
	recentErr     error
	nextJobNumber int
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:     make(map[string]bool),
		submitOK: true,
		jobs:     make(map[string]*job.Job),
	}
}

func (m *mockDeps) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeps) Unrecord(ctx context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDeps) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDeps) Submit(ctx context.Context, spec *job.Spec) (string, bool) {
	if !m.submitOK {
		return "", false
	}
	m.nextJobNumber++
	m.submitted = append(m.submitted, spec)
	return fmt.Sprintf("job-%d", m.nextJobNumber), true
}

func (m *mockDeps) GetJob(ctx context.Context, id string) (*job.Job, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return j, nil
}

func (m *mockDeps) RecentJobs(ctx context.Context, n int) ([]*job.Job, error) {
	if m.recentErr != nil {
		return nil, m.recentErr
	}
	if n > len(m.recent) {
		n = len(m.recent)
	}
	return m.recent[:n], nil
}

type mockStats struct{}

func (mockStats) GetStats() map[string]interface{} {
	return map[string]interface{}{"jobs": 3}
}

func newTestServer(deps *mockDeps) *http.ServeMux {
	mux := http.NewServeMux()
	srv := api.NewServer(deps, mockStats{}, api.WithMaxListLimit(10))
	srv.Register(context.Background(), mux)
	return mux
}

const validBody = `{
	"request_id": "req-1",
	"model": "linear",
	"target": "price",
	"operations": ["partial_dependence"],
	"dataset": {
		"columns": [
			{"name": "size", "kind": "numerical"},
			{"name": "price", "kind": "numerical"}
		],
		"rows": [[1, 10], [2, 20], [3, 30]]
	}
}`

func TestHandleSubmit(t *testing.T) {
	Convey("Given the explanations endpoint", t, func() {
		deps := newMockDeps()
		mux := newTestServer(deps)

		Convey("When a valid job is posted", func() {
			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(validBody))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then it is accepted with a job id", func() {
				So(rec.Code, ShouldEqual, http.StatusAccepted)
				var ack map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["status"], ShouldEqual, "accepted")
				So(ack["job_id"], ShouldEqual, "job-1")
				So(len(deps.submitted), ShouldEqual, 1)
				So(deps.submitted[0].Target, ShouldEqual, "price")
				So(deps.submitted[0].Data.NumRows(), ShouldEqual, 3)
			})

			Convey("And posting the same request id again reports a duplicate", func() {
				rec2 := httptest.NewRecorder()
				req2 := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(validBody))
				mux.ServeHTTP(rec2, req2)

				So(rec2.Code, ShouldEqual, http.StatusOK)
				var ack map[string]any
				So(json.Unmarshal(rec2.Body.Bytes(), &ack), ShouldBeNil)
				So(ack["duplicate"], ShouldEqual, true)
				So(len(deps.submitted), ShouldEqual, 1)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader("{nope"))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When required fields are missing", func() {
			body := `{"request_id": "req-2", "operations": ["importance"]}`
			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When a cell type does not match its column kind", func() {
			body := strings.Replace(validBody, `[1, 10]`, `["one", 10]`, 1)
			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(body))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the dataset exceeds the configured size cap", func() {
			small := http.NewServeMux()
			srv := api.NewServer(deps, mockStats{}, api.WithMaxDatasetSize(2, 10))
			srv.Register(context.Background(), small)

			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(validBody))
			rec := httptest.NewRecorder()
			small.ServeHTTP(rec, req)

			Convey("Then the job is rejected before touching the dedupe state", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.seen["req-1"], ShouldBeFalse)
			})
		})

		Convey("When the queue pushes back", func() {
			deps.submitOK = false
			req := httptest.NewRequest(http.MethodPost, "/explanations", strings.NewReader(validBody))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the client gets 429 and may retry", func() {
				So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
				So(deps.seen["req-1"], ShouldBeFalse)
			})
		})
	})
}

func TestHandleGetExplanation(t *testing.T) {
	Convey("Given a stored job", t, func() {
		deps := newMockDeps()
		deps.jobs["job-7"] = &job.Job{
			ID:          "job-7",
			Spec:        job.Spec{Target: "price", Operations: []job.Operation{job.OpImportance}},
			Status:      job.StatusDone,
			SubmittedAt: time.Now(),
			Result:      &job.Result{},
		}
		mux := newTestServer(deps)

		Convey("When fetching it by id", func() {
			req := httptest.NewRequest(http.MethodGet, "/explanations/job-7", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then the job view is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["id"], ShouldEqual, "job-7")
				So(body["status"], ShouldEqual, "done")
				So(body["target"], ShouldEqual, "price")
			})
		})

		Convey("When fetching an unknown id", func() {
			req := httptest.NewRequest(http.MethodGet, "/explanations/missing", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the id is malformed", func() {
			req := httptest.NewRequest(http.MethodGet, "/explanations/a/b", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleList(t *testing.T) {
	Convey("Given stored jobs", t, func() {
		deps := newMockDeps()
		for i := 0; i < 5; i++ {
			deps.recent = append(deps.recent, &job.Job{
				ID:          fmt.Sprintf("job-%d", i),
				Spec:        job.Spec{Target: "price"},
				Status:      job.StatusQueued,
				SubmittedAt: time.Now(),
			})
		}
		mux := newTestServer(deps)

		Convey("When listing with a limit", func() {
			req := httptest.NewRequest(http.MethodGet, "/explanations?limit=3", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			Convey("Then that many jobs come back", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var body []map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(len(body), ShouldEqual, 3)
			})
		})

		Convey("When the limit is missing or invalid", func() {
			for _, target := range []string{"/explanations?limit=0", "/explanations?limit=x", "/explanations"} {
				req := httptest.NewRequest(http.MethodGet, target, nil)
				rec := httptest.NewRecorder()
				mux.ServeHTTP(rec, req)
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the cap", func() {
			req := httptest.NewRequest(http.MethodGet, "/explanations?limit=11", nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleStats(t *testing.T) {
	Convey("Given the stats endpoint", t, func() {
		mux := newTestServer(newMockDeps())

		req := httptest.NewRequest(http.MethodGet, "/stats", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		So(rec.Code, ShouldEqual, http.StatusOK)
		var body map[string]any
		So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
		So(body["jobs"], ShouldEqual, 3)
	})
}

func TestHandleHealth(t *testing.T) {
	Convey("Given the health endpoint", t, func() {
		mux := newTestServer(newMockDeps())

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)

		Convey("Then it serves the metrics registry", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "glassbox")
		})
	})
}
