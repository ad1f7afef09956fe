package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-assistant/internal/db"
	"github.com/jonathan/resume-assistant/internal/ingestion"
	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/server/ratelimit"
	"github.com/jonathan/resume-assistant/internal/types"
)

type fakeRunner struct {
	mu     sync.Mutex
	inputs []pipeline.Input
	run    func(ctx context.Context, in pipeline.Input) (*pipeline.Result, error)
}

func (f *fakeRunner) Execute(ctx context.Context, in pipeline.Input) (*pipeline.Result, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()
	if f.run != nil {
		return f.run(ctx, in)
	}
	return okResult(in), nil
}

func (f *fakeRunner) lastInput(t *testing.T) pipeline.Input {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.inputs)
	return f.inputs[len(f.inputs)-1]
}

func okResult(in pipeline.Input) *pipeline.Result {
	mode := in.ModeHint
	if mode == "" {
		mode = pipeline.ModeAnalyzeOnly
	}
	return &pipeline.Result{RunID: uuid.New(), Mode: mode, Output: "## Job Analysis\n" + in.JobDescription}
}

type memoryStore struct {
	runs      map[uuid.UUID]*db.Run
	artifacts map[uuid.UUID][]db.Artifact
	filters   db.RunFilters
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[uuid.UUID]*db.Run{}, artifacts: map[uuid.UUID][]db.Artifact{}}
}

func (m *memoryStore) GetRun(_ context.Context, runID uuid.UUID) (*db.Run, error) {
	run, ok := m.runs[runID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return run, nil
}

func (m *memoryStore) ListRuns(_ context.Context, filters db.RunFilters) ([]db.Run, error) {
	m.filters = filters
	var out []db.Run
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memoryStore) ListArtifacts(_ context.Context, runID uuid.UUID) ([]db.Artifact, error) {
	return m.artifacts[runID], nil
}

func (m *memoryStore) DeleteRun(_ context.Context, runID uuid.UUID) error {
	if _, ok := m.runs[runID]; !ok {
		return fmt.Errorf("run %s: %w", runID, db.ErrNotFound)
	}
	delete(m.runs, runID)
	delete(m.artifacts, runID)
	return nil
}

func newTestServer(t *testing.T, runner Runner, cfg Config, opts ...Option) *Server {
	t.Helper()
	if cfg.RateLimit == nil {
		cfg.RateLimit = &ratelimit.Config{Enabled: false}
	}
	s := New(cfg, runner, append([]Option{WithLogger(zerolog.Nop())}, opts...)...)
	t.Cleanup(s.rateLimiter.Stop)
	return s
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{})

	w := do(s.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["database"])
}

func TestRunEndpoint_Success(t *testing.T) {
	runner := &fakeRunner{}
	s := newTestServer(t, runner, Config{})

	w := do(s.Handler(), http.MethodPost, "/v1/resume/run",
		`{"user_input":"analyze this","job_description":"  Go engineer  \n\n\n\nRemote","mode":"ANALYZE_ONLY"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.RunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ANALYZE_ONLY", resp.Mode)
	assert.NotEmpty(t, resp.RunID)
	assert.Contains(t, resp.Output, "## Job Analysis")

	in := runner.lastInput(t)
	assert.Equal(t, "analyze this", in.UserInput)
	assert.Equal(t, pipeline.ModeAnalyzeOnly, in.ModeHint)
	assert.Equal(t, "Go engineer\n\nRemote", in.JobDescription)
}

func TestRunEndpoint_ValidationErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "invalid json", body: `{"user_input":`, wantField: "body"},
		{name: "missing user input", body: `{"job_description":"jd"}`, wantField: "user_input"},
		{name: "unknown mode", body: `{"user_input":"x","mode":"EVERYTHING"}`, wantField: "mode"},
		{name: "bad url", body: `{"user_input":"x","job_url":"nope"}`, wantField: "job_url"},
		{name: "url and description", body: `{"user_input":"x","job_description":"jd","job_url":"https://example.com/j"}`, wantField: "job_url"},
		{name: "url without fetcher", body: `{"user_input":"x","job_url":"https://example.com/j"}`, wantField: "job_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{}
			s := newTestServer(t, runner, Config{})

			w := do(s.Handler(), http.MethodPost, "/v1/resume/run", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decodeBody(t, w)["error"], tt.wantField)
			assert.Empty(t, runner.inputs)
		})
	}
}

func TestRunEndpoint_JobURL(t *testing.T) {
	runner := &fakeRunner{}
	var fetched string
	fetcher := ingestion.JobFetcherFunc(func(_ context.Context, url string) (string, error) {
		fetched = url
		return "Senior Go Engineer\t\nBuild services.", nil
	})
	s := newTestServer(t, runner, Config{}, WithJobFetcher(fetcher))

	w := do(s.Handler(), http.MethodPost, "/v1/resume/run",
		`{"user_input":"write my resume","job_url":"https://boards.example.com/jobs/1"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "https://boards.example.com/jobs/1", fetched)
	assert.Equal(t, "Senior Go Engineer\nBuild services.", runner.lastInput(t).JobDescription)
}

func TestRunEndpoint_RunnerErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "ambiguous classification",
			err:        &pipeline.StageError{Stage: pipeline.StageRouter, Cause: &pipeline.ClassificationError{Raw: "maybe"}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "generation failure",
			err:        &pipeline.StageError{Stage: pipeline.StageWriter, Cause: &llm.GenerationError{Message: "writer call failed"}},
			wantStatus: http.StatusBadGateway,
		},
		{
			name:       "timeout",
			err:        &llm.GenerationError{Message: "analyzer call timed out", Cause: context.DeadlineExceeded},
			wantStatus: http.StatusGatewayTimeout,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{run: func(context.Context, pipeline.Input) (*pipeline.Result, error) {
				return nil, tt.err
			}}
			s := newTestServer(t, runner, Config{})

			w := do(s.Handler(), http.MethodPost, "/v1/resume/run", `{"user_input":"x"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.err.Error(), decodeBody(t, w)["error"])
		})
	}
}

func TestRunEndpoint_Busy(t *testing.T) {
	started := make(chan struct{})
	unblock := make(chan struct{})
	runner := &fakeRunner{run: func(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
		close(started)
		<-unblock
		return okResult(in), nil
	}}
	s := newTestServer(t, runner, Config{MaxConcurrentRuns: 1})
	h := s.Handler()

	done := make(chan int, 1)
	go func() {
		done <- do(h, http.MethodPost, "/v1/resume/run", `{"user_input":"first"}`).Code
	}()
	<-started

	w := do(h, http.MethodPost, "/v1/resume/run", `{"user_input":"second"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	close(unblock)
	assert.Equal(t, http.StatusOK, <-done)

	// The slot is released once the first run finishes.
	runner.run = nil
	w = do(h, http.MethodPost, "/v1/resume/run", `{"user_input":"third"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRunStreamEndpoint(t *testing.T) {
	runner := &fakeRunner{run: func(_ context.Context, in pipeline.Input) (*pipeline.Result, error) {
		in.OnProgress(pipeline.ProgressEvent{Step: "analyzer", Category: "analysis", Message: "Analyzing job description"})
		in.OnChunk(pipeline.StageAnalyzer, "Requirements")
		return okResult(in), nil
	}}
	s := newTestServer(t, runner, Config{})

	w := do(s.Handler(), http.MethodPost, "/v1/resume/run/stream", `{"user_input":"x","job_description":"jd"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.Contains(t, body, "event: progress\ndata: {\"step\":\"analyzer\"")
	assert.Contains(t, body, "event: chunk\ndata: {\"stage\":\"analyzer\",\"text\":\"Requirements\"}")
	assert.Contains(t, body, "event: complete\n")
	assert.Contains(t, body, `"mode":"ANALYZE_ONLY"`)

	assert.Less(t, strings.Index(body, "event: progress"), strings.Index(body, "event: complete"))
}

func TestRunStreamEndpoint_Error(t *testing.T) {
	runner := &fakeRunner{run: func(context.Context, pipeline.Input) (*pipeline.Result, error) {
		return nil, &pipeline.StageError{Stage: pipeline.StageRouter, Cause: pipeline.ErrClassificationAmbiguous}
	}}
	s := newTestServer(t, runner, Config{})

	w := do(s.Handler(), http.MethodPost, "/v1/resume/run/stream", `{"user_input":"x"}`)

	body := w.Body.String()
	assert.Contains(t, body, "event: error\n")
	assert.Contains(t, body, `"status":502`)
	assert.NotContains(t, body, "event: complete")
}

func TestRunStreamEndpoint_ValidationIsPlainJSON(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{})

	w := do(s.Handler(), http.MethodPost, "/v1/resume/run/stream", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestRunsEndpoints_NoStore(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{})

	for _, path := range []string{"/v1/runs", "/v1/runs/" + uuid.NewString(), "/v1/runs/" + uuid.NewString() + "/artifacts"} {
		w := do(s.Handler(), http.MethodGet, path, "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
	}
}

func seededStore() (*memoryStore, uuid.UUID) {
	store := newMemoryStore()
	runID := uuid.New()
	store.runs[runID] = &db.Run{ID: runID, Mode: "WRITE_ONLY", Status: db.RunStatusCompleted, UserInput: "me"}
	store.artifacts[runID] = []db.Artifact{
		{ID: uuid.New(), RunID: runID, Step: db.StepJobAnalysis, Category: "analysis", TextContent: "analysis"},
		{ID: uuid.New(), RunID: runID, Step: db.StepResume, Category: "generation", TextContent: `\section{Experience}`},
	}
	return store, runID
}

func TestGetRunEndpoint(t *testing.T) {
	store, runID := seededStore()
	s := newTestServer(t, &fakeRunner{}, Config{}, WithRunStore(store))

	w := do(s.Handler(), http.MethodGet, "/v1/runs/"+runID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, runID.String(), body["id"])
	assert.Equal(t, "WRITE_ONLY", body["mode"])
	assert.Len(t, body["artifacts"], 2)
}

func TestGetRunEndpoint_Errors(t *testing.T) {
	store, _ := seededStore()
	s := newTestServer(t, &fakeRunner{}, Config{}, WithRunStore(store))

	w := do(s.Handler(), http.MethodGet, "/v1/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(s.Handler(), http.MethodGet, "/v1/runs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunArtifactsEndpoint(t *testing.T) {
	store, runID := seededStore()
	s := newTestServer(t, &fakeRunner{}, Config{}, WithRunStore(store))

	w := do(s.Handler(), http.MethodGet, "/v1/runs/"+runID.String()+"/artifacts", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		RunID     string        `json:"run_id"`
		Artifacts []db.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, runID.String(), body.RunID)
	require.Len(t, body.Artifacts, 2)
	assert.Equal(t, db.StepResume, body.Artifacts[1].Step)

	w = do(s.Handler(), http.MethodGet, "/v1/runs/"+uuid.NewString()+"/artifacts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRunsEndpoint(t *testing.T) {
	store, _ := seededStore()
	s := newTestServer(t, &fakeRunner{}, Config{}, WithRunStore(store))

	w := do(s.Handler(), http.MethodGet, "/v1/runs?mode=WRITE_ONLY&status=completed&limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["count"])
	assert.Equal(t, db.RunFilters{Mode: "WRITE_ONLY", Status: "completed", Limit: 5}, store.filters)

	w = do(s.Handler(), http.MethodGet, "/v1/runs?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteRunEndpoint(t *testing.T) {
	store, runID := seededStore()
	s := newTestServer(t, &fakeRunner{}, Config{}, WithRunStore(store))

	w := do(s.Handler(), http.MethodDelete, "/v1/runs/"+runID.String(), "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.NotContains(t, store.runs, runID)

	w = do(s.Handler(), http.MethodDelete, "/v1/runs/"+runID.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{})

	w := do(s.Handler(), http.MethodOptions, "/v1/resume/run", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{})

	w := do(s.Handler(), http.MethodGet, "/health", "")
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, &fakeRunner{}, Config{RateLimit: &ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  1,
		DefaultWindow: time.Minute,
	}}, WithRunStore(newMemoryStore()))

	w := do(s.Handler(), http.MethodGet, "/v1/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))

	w = do(s.Handler(), http.MethodGet, "/v1/runs", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "rate_limit_exceeded", decodeBody(t, w)["error"])

	// Health checks are never limited.
	w = do(s.Handler(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractClientID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	assert.Equal(t, "10.1.2.3", extractClientID(req))

	req.RemoteAddr = "garbage"
	assert.Equal(t, "garbage", extractClientID(req))
}
