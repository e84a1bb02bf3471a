// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/glassboxml/glassbox/internal/domain/dataset"
	"github.com/glassboxml/glassbox/internal/domain/dedupe"
	"github.com/glassboxml/glassbox/internal/domain/job"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Submit queues a validated spec for async processing.
	// Returns the assigned job id, or ok=false on backpressure.
	Submit(ctx context.Context, spec *job.Spec) (id string, ok bool)

	// Read operations expose stored jobs.
	GetJob(ctx context.Context, id string) (*job.Job, error)
	RecentJobs(ctx context.Context, n int) ([]*job.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler       *HealthHandler
	statsHandler        *StatsHandler
	explanationsHandler *ExplanationsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := newConfig(opts...)
	return &Server{
		healthHandler:       NewHealthHandler(),
		statsHandler:        NewStatsHandler(statsProvider),
		explanationsHandler: NewExplanationsHandler(deps, cfg),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/explanations", MetricsMiddleware(s.explanationsHandler.HandleExplanations, "explanations"))
	mux.HandleFunc("/explanations/", MetricsMiddleware(s.explanationsHandler.HandleGetExplanation, "explanation"))
}

// columnPayload mirrors the JSON schema for a dataset column.
type columnPayload struct {
	Name   string   `json:"name"`
	Kind   string   `json:"kind"`
	Levels []string `json:"levels,omitempty"`
}

// datasetPayload mirrors the JSON schema for an uploaded dataset.
// Rows hold numbers for numerical columns and strings for categorical
// ones, in column order.
type datasetPayload struct {
	Columns []columnPayload `json:"columns"`
	Rows    [][]any         `json:"rows"`
}

func (p *datasetPayload) toDataset() (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(p.Columns))
	for i, c := range p.Columns {
		cols[i] = dataset.Column{
			Name:   c.Name,
			Kind:   dataset.Kind(c.Kind),
			Levels: c.Levels,
		}
	}
	rows := make([][]dataset.Value, len(p.Rows))
	for r, raw := range p.Rows {
		if len(raw) != len(cols) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", r, len(raw), len(cols))
		}
		row := make([]dataset.Value, len(raw))
		for c, cell := range raw {
			switch v := cell.(type) {
			case float64:
				if cols[c].Kind != dataset.Numerical {
					return nil, fmt.Errorf("row %d column %q: number in categorical column", r, cols[c].Name)
				}
				row[c] = dataset.Num(v)
			case string:
				if cols[c].Kind != dataset.Categorical {
					return nil, fmt.Errorf("row %d column %q: string in numerical column", r, cols[c].Name)
				}
				row[c] = dataset.Cat(v)
			default:
				return nil, fmt.Errorf("row %d column %q: unsupported cell type", r, cols[c].Name)
			}
		}
		rows[r] = row
	}
	return dataset.FromRecords(cols, rows)
}

// explanationRequest mirrors the JSON schema for POST /explanations.
type explanationRequest struct {
	RequestID    string          `json:"request_id"`
	Model        string          `json:"model,omitempty"`
	Target       string          `json:"target"`
	Operations   []string        `json:"operations"`
	Options      job.Options     `json:"options,omitempty"`
	Dataset      *datasetPayload `json:"dataset"`
	Observations *datasetPayload `json:"observations,omitempty"`
}

func (e *explanationRequest) validate() error {
	switch {
	case strings.TrimSpace(e.RequestID) == "":
		return errors.New("missing request_id")
	case strings.TrimSpace(e.Target) == "":
		return errors.New("missing target")
	case len(e.Operations) == 0:
		return errors.New("missing operations")
	case e.Dataset == nil || len(e.Dataset.Columns) == 0:
		return errors.New("missing dataset")
	case len(e.Dataset.Rows) == 0:
		return errors.New("empty dataset")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	JobID     string `json:"job_id,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// jobResponse is the read shape for a stored job. The uploaded dataset
// is summarized rather than echoed back.
type jobResponse struct {
	ID          string      `json:"id"`
	Status      job.Status  `json:"status"`
	Error       string      `json:"error,omitempty"`
	Model       string      `json:"model,omitempty"`
	Target      string      `json:"target"`
	Operations  []string    `json:"operations"`
	Rows        int         `json:"rows"`
	SubmittedAt time.Time   `json:"submitted_at"`
	StartedAt   *time.Time  `json:"started_at,omitempty"`
	FinishedAt  *time.Time  `json:"finished_at,omitempty"`
	Result      *job.Result `json:"result,omitempty"`
}

func toJobResponse(j *job.Job) jobResponse {
	ops := make([]string, len(j.Spec.Operations))
	for i, op := range j.Spec.Operations {
		ops[i] = string(op)
	}
	rows := 0
	if j.Spec.Data != nil {
		rows = j.Spec.Data.NumRows()
	}
	resp := jobResponse{
		ID:          j.ID,
		Status:      j.Status,
		Error:       j.Error,
		Model:       string(j.Spec.Model),
		Target:      j.Spec.Target,
		Operations:  ops,
		Rows:        rows,
		SubmittedAt: j.SubmittedAt,
		Result:      j.Result,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		resp.StartedAt = &t
	}
	if !j.FinishedAt.IsZero() {
		t := j.FinishedAt
		resp.FinishedAt = &t
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
