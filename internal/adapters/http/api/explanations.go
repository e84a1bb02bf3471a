// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/glassboxml/glassbox/internal/adapters/repository"
	"github.com/glassboxml/glassbox/internal/domain/job"
	"github.com/glassboxml/glassbox/internal/domain/model"
	"github.com/glassboxml/glassbox/pkg/metrics"
)

// ExplanationsHandler handles submission and retrieval of explanation
// jobs.
type ExplanationsHandler struct {
	deps     Dependencies
	maxLimit int
	maxRows  int
	maxCols  int
}

// NewExplanationsHandler creates a new explanations handler.
func NewExplanationsHandler(deps Dependencies, cfg *config) *ExplanationsHandler {
	return &ExplanationsHandler{
		deps:     deps,
		maxLimit: cfg.maxListLimit,
		maxRows:  cfg.maxDatasetRows,
		maxCols:  cfg.maxDatasetCols,
	}
}

// HandleExplanations dispatches POST /explanations and
// GET /explanations?limit=N.
func (h *ExplanationsHandler) HandleExplanations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleSubmit(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *ExplanationsHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_explanation"

	var req explanationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if len(req.Dataset.Columns) > h.maxCols || len(req.Dataset.Rows) > h.maxRows {
		writeError(w, http.StatusBadRequest, "dataset_too_large", NewKind(op, ErrBadRequest))
		return
	}

	spec, err := buildSpec(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	// Idempotency check first: a resubmitted request id is acknowledged
	// without queueing a second job.
	if h.deps.SeenAndRecord(r.Context(), req.RequestID) {
		metrics.RecordJobDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	id, ok := h.deps.Submit(r.Context(), spec)
	if !ok {
		// Roll back the seen mark so the client can retry.
		h.deps.Unrecord(r.Context(), req.RequestID)
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	metrics.RecordJobSubmitted()
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", JobID: id})
}

func (h *ExplanationsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_explanations"

	limitStr := r.URL.Query().Get("limit")
	n, err := strconv.Atoi(limitStr)
	if err != nil || n < 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}

	jobs, err := h.deps.RecentJobs(r.Context(), n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetExplanation handles GET /explanations/{id} requests.
func (h *ExplanationsHandler) HandleGetExplanation(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_explanation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/explanations/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	j, err := h.deps.GetJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(j))
}

// buildSpec converts a decoded request into a validated job spec.
func buildSpec(req *explanationRequest) (*job.Spec, error) {
	data, err := req.Dataset.toDataset()
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	spec := &job.Spec{
		RequestID: req.RequestID,
		Model:     model.Kind(req.Model),
		Target:    req.Target,
		Options:   req.Options,
		Data:      data,
	}
	for _, op := range req.Operations {
		spec.Operations = append(spec.Operations, job.Operation(op))
	}
	if req.Observations != nil {
		observations, err := req.Observations.toDataset()
		if err != nil {
			return nil, fmt.Errorf("observations: %w", err)
		}
		spec.Observations = observations
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}
