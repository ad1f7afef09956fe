package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/types"
)

// maxRequestBytes caps run request bodies.
const maxRequestBytes = 1 << 20

// RunDetailResponse is returned by GET /v1/runs/{id}.
type RunDetailResponse struct {
	*db.Run
	Artifacts []db.ArtifactSummary `json:"artifacts,omitempty"`
}

// handleRun executes a request synchronously and returns the composed output.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	release, err := s.acquireRunSlot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer release()

	in, err := s.buildInput(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, runResponse(res))
}

// handleRunStream executes a request and streams progress, chunks and the
// final output via SSE.
func (s *Server) handleRunStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRunRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	release, err := s.acquireRunSlot()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer release()

	in, err := s.buildInput(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	log := hlog.FromRequest(r)
	in.OnProgress = func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent(EventProgress, event); err != nil {
			log.Warn().Err(err).Msg("error writing SSE event")
		}
	}
	in.OnChunk = func(stage pipeline.Stage, chunk string) {
		if err := sse.WriteEvent(EventChunk, pipeline.ChunkContent{Stage: stage, Text: chunk}); err != nil {
			log.Warn().Err(err).Msg("error writing SSE chunk")
		}
	}

	res, err := s.runner.Execute(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("streaming run failed")
		sse.WriteError(err)
		return
	}
	sse.WriteComplete(runResponse(res))
}

// handleListRuns lists stored runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, r, &ErrStoreDisabled{})
		return
	}

	q := r.URL.Query()
	filters := db.RunFilters{Mode: q.Get("mode"), Status: q.Get("status")}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			s.writeError(w, r, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		filters.Limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"runs": runs, "count": len(runs)})
}

// handleGetRun returns a stored run and a summary of its artifacts.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runIDFromPath(w, r)
	if !ok {
		return
	}

	run, err := s.store.GetRun(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, notFound(err, runID))
		return
	}
	artifacts, err := s.store.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, RunDetailResponse{Run: run, Artifacts: db.Summaries(artifacts)})
}

// handleRunArtifacts returns every artifact stored for a run.
func (s *Server) handleRunArtifacts(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runIDFromPath(w, r)
	if !ok {
		return
	}

	if _, err := s.store.GetRun(r.Context(), runID); err != nil {
		s.writeError(w, r, notFound(err, runID))
		return
	}
	artifacts, err := s.store.ListArtifacts(r.Context(), runID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if artifacts == nil {
		artifacts = []db.Artifact{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"run_id":    runID.String(),
		"artifacts": artifacts,
	})
}

// handleDeleteRun deletes a run and its artifacts.
func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	runID, ok := s.runIDFromPath(w, r)
	if !ok {
		return
	}

	if err := s.store.DeleteRun(r.Context(), runID); err != nil {
		s.writeError(w, r, notFound(err, runID))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runIDFromPath parses the {id} path value, writing the error response
// itself when the store is disabled or the ID is malformed.
func (s *Server) runIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.store == nil {
		s.writeError(w, r, &ErrStoreDisabled{})
		return uuid.Nil, false
	}
	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, &ErrValidation{Field: "id", Message: "invalid run ID format"})
		return uuid.Nil, false
	}
	return runID, true
}

func notFound(err error, runID uuid.UUID) error {
	if errors.Is(err, db.ErrNotFound) {
		return &ErrRunNotFound{RunID: runID}
	}
	return err
}

func decodeRunRequest(w http.ResponseWriter, r *http.Request) (*types.RunRequest, error) {
	var req types.RunRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		return nil, &ErrValidation{Field: "body", Message: "invalid request body: " + err.Error()}
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}
	return &req, nil
}

// acquireRunSlot reserves one of the concurrent run slots. The returned
// function releases it.
func (s *Server) acquireRunSlot() (func(), error) {
	if !s.runSlots.TryAcquire(1) {
		return nil, &ErrBusy{Limit: s.maxRuns}
	}
	return func() { s.runSlots.Release(1) }, nil
}

func (s *Server) buildInput(ctx context.Context, req *types.RunRequest) (pipeline.Input, error) {
	if req.JobURL != "" && s.jobs == nil {
		return pipeline.Input{}, &ErrValidation{Field: "job_url", Message: "fetching job postings is disabled"}
	}
	jd, err := ingestion.JobDescription(ctx, ingestion.JobSource{Text: req.JobDescription, URL: req.JobURL}, nil, s.jobs)
	if err != nil {
		return pipeline.Input{}, err
	}
	return pipeline.Input{
		UserInput:      req.UserInput,
		JobDescription: jd,
		ModeHint:       pipeline.Mode(req.Mode),
	}, nil
}

func runResponse(res *pipeline.Result) types.RunResponse {
	return types.RunResponse{
		RunID:  res.RunID.String(),
		Mode:   string(res.Mode),
		Output: res.Output,
	}
}
