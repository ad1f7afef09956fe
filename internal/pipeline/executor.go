// Package pipeline drives a request through the resume assistant stage graph.
//
// The graph is static: a router stage classifies the request into a Mode,
// and the transition table picks exactly one path from there to the output
// composer. Stage behavior is supplied by injected Handlers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jonathan/resume-assistant/internal/logger"
)

// Handler runs one stage against the request context.
type Handler interface {
	Handle(ctx context.Context, rc *RequestContext) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, rc *RequestContext) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, rc *RequestContext) error {
	return f(ctx, rc)
}

// Run statuses recorded by a RunStore.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunStore persists runs and their per-stage artifacts.
type RunStore interface {
	CreateRun(ctx context.Context, runID uuid.UUID, userInput, jobDescription string) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, category, text string) error
	CompleteRun(ctx context.Context, runID uuid.UUID, mode, status, output string) error
}

// Input is a single request to the executor.
type Input struct {
	UserInput      string
	JobDescription string
	// ModeHint skips classification when it names a valid mode.
	ModeHint   Mode
	OnProgress ProgressCallback
	// OnChunk receives streamed text from generating stages.
	OnChunk ChunkCallback
}

// Result is the outcome of a completed run.
type Result struct {
	RunID   uuid.UUID
	Mode    Mode
	Output  string
	Context *RequestContext
}

// Executor walks the stage graph for each request.
type Executor struct {
	handlers     map[Stage]Handler
	store        RunStore
	fallbackMode Mode
	logger       zerolog.Logger
	now          func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithStore persists runs and artifacts to store.
func WithStore(store RunStore) Option {
	return func(e *Executor) { e.store = store }
}

// WithFallbackMode makes the executor continue with m when the router cannot
// classify a request, instead of failing with ErrClassificationAmbiguous.
func WithFallbackMode(m Mode) Option {
	return func(e *Executor) { e.fallbackMode = m }
}

// WithLogger sets the executor's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor creates an executor. Every stage in StageRegistry must have a
// handler.
func NewExecutor(handlers map[Stage]Handler, opts ...Option) (*Executor, error) {
	for stage := range StageRegistry {
		if handlers[stage] == nil {
			return nil, fmt.Errorf("no handler registered for stage %s", stage)
		}
	}

	e := &Executor{
		handlers: handlers,
		logger:   logger.Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.fallbackMode != "" && !e.fallbackMode.Valid() {
		return nil, fmt.Errorf("invalid fallback mode %q", e.fallbackMode)
	}
	return e, nil
}

// Run executes a request and returns only the composed output.
func (e *Executor) Run(ctx context.Context, in Input) (string, error) {
	res, err := e.Execute(ctx, in)
	if err != nil {
		return "", err
	}
	return res.Output, nil
}

// contextLogger prefers the logger carried by ctx so request-scoped fields
// survive into run logs.
func (e *Executor) contextLogger(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return *l
	}
	return e.logger
}

// Execute walks the graph from the router to the output composer.
func (e *Executor) Execute(ctx context.Context, in Input) (*Result, error) {
	runID := uuid.New()
	log := e.contextLogger(ctx).With().Str("run_id", runID.String()).Logger()
	ctx = log.WithContext(ctx)

	rc := NewRequestContext(in.UserInput, in.JobDescription)
	rc.onChunk = in.OnChunk
	if in.ModeHint != "" {
		if err := rc.SetMode(in.ModeHint); err != nil {
			return nil, fmt.Errorf("invalid mode hint: %w", err)
		}
	}

	e.startRun(ctx, runID, rc)
	emitProgress(in.OnProgress, runID.String(), StepRunStarted, CategoryRouting, "Run started", nil)

	started := e.now()
	err := e.walk(ctx, runID, rc, in.OnProgress)
	e.finishRun(ctx, runID, rc, err)
	if err != nil {
		log.Error().Err(err).Str("mode", string(rc.Mode)).Msg("run failed")
		return nil, err
	}

	log.Info().
		Str("mode", string(rc.Mode)).
		Bool("used_fallback", rc.UsedFallback).
		Dur("duration", e.now().Sub(started)).
		Msg("run completed")
	emitProgress(in.OnProgress, runID.String(), StepRunCompleted, CategoryOutput, "Run completed", rc.Output)

	return &Result{RunID: runID, Mode: rc.Mode, Output: rc.Output, Context: rc}, nil
}

func (e *Executor) walk(ctx context.Context, runID uuid.UUID, rc *RequestContext, onProgress ProgressCallback) error {
	log := zerolog.Ctx(ctx)
	stage := StageRouter

	for steps := 0; ; steps++ {
		if steps > len(StageRegistry) {
			return fmt.Errorf("stage graph did not terminate after %d steps", steps)
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		def := StageRegistry[stage]
		rc.stage = stage
		emitProgress(onProgress, runID.String(), string(stage), def.Category, def.Message, nil)
		log.Debug().Str("stage", string(stage)).Msg("stage started")

		started := e.now()
		err := e.handlers[stage].Handle(ctx, rc)
		if stage == StageRouter {
			err = e.resolveMode(ctx, rc, err)
		}
		if err != nil {
			return &StageError{Stage: stage, Cause: err}
		}

		log.Debug().
			Str("stage", string(stage)).
			Dur("duration", e.now().Sub(started)).
			Msg("stage completed")
		e.saveArtifact(ctx, runID, rc, stage)
		if text, ok := rc.Artifact(stage); ok {
			emitProgress(onProgress, runID.String(), string(stage), def.Category, def.Message+" done", text)
		}

		if stage == StageOutputComposer {
			return nil
		}
		next, ok := Next(stage, rc.Mode)
		if !ok {
			return &ClassificationError{Raw: string(rc.Mode)}
		}
		stage = next
	}
}

// resolveMode applies the fallback policy after the router ran.
func (e *Executor) resolveMode(ctx context.Context, rc *RequestContext, err error) error {
	if err == nil && rc.Mode.Valid() {
		return nil
	}
	if err == nil {
		err = &ClassificationError{Raw: string(rc.Mode)}
	}
	if !errors.Is(err, ErrClassificationAmbiguous) || e.fallbackMode == "" {
		return err
	}

	zerolog.Ctx(ctx).Warn().
		Err(err).
		Str("fallback_mode", string(e.fallbackMode)).
		Msg("classification ambiguous, using fallback mode")
	rc.Mode = ""
	return rc.SetMode(e.fallbackMode)
}

func (e *Executor) startRun(ctx context.Context, runID uuid.UUID, rc *RequestContext) {
	if e.store == nil {
		return
	}
	if err := e.store.CreateRun(ctx, runID, rc.UserInput, rc.JobDescription); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to record run, continuing without persistence")
	}
}

func (e *Executor) saveArtifact(ctx context.Context, runID uuid.UUID, rc *RequestContext, stage Stage) {
	if e.store == nil {
		return
	}
	text, ok := rc.Artifact(stage)
	if !ok {
		return
	}
	if err := e.store.SaveTextArtifact(ctx, runID, string(stage), StageRegistry[stage].Category, text); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("stage", string(stage)).Msg("failed to save artifact")
	}
}

func (e *Executor) finishRun(ctx context.Context, runID uuid.UUID, rc *RequestContext, runErr error) {
	if e.store == nil {
		return
	}
	status, output := StatusCompleted, rc.Output
	if runErr != nil {
		status, output = StatusFailed, runErr.Error()
	}
	// The request context may already be cancelled; still record the outcome.
	if err := e.store.CompleteRun(context.WithoutCancel(ctx), runID, string(rc.Mode), status, output); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to complete run")
	}
}

// StageError reports which stage failed.
type StageError struct {
	Stage Stage
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error {
	return e.Cause
}
