package pipeline

import (
	"github.com/jonathan/resume-assistant/internal/types"
)

// ChunkCallback receives incremental generation output for a stage.
type ChunkCallback func(stage Stage, chunk string)

// RequestContext is the per-request state threaded through the stage graph.
// Stages fill fields in as they run; a context is never shared between
// requests.
type RequestContext struct {
	UserInput      string
	JobDescription string

	Mode        Mode
	Profile     *types.Profile
	ProfileJSON string
	JobAnalysis string
	Resume      string
	Feedback    string
	Output      string

	// UsedFallback is set when the profile came from the deterministic parser.
	UsedFallback bool

	stage   Stage
	onChunk ChunkCallback
}

// NewRequestContext creates the context for a single request.
func NewRequestContext(userInput, jobDescription string) *RequestContext {
	return &RequestContext{
		UserInput:      userInput,
		JobDescription: jobDescription,
	}
}

// SetMode records the classified mode. It fails if m is not recognized or a
// mode was already assigned.
func (rc *RequestContext) SetMode(m Mode) error {
	if rc.Mode != "" {
		return ErrModeAlreadySet
	}
	if !m.Valid() {
		return &ClassificationError{Raw: string(m)}
	}
	rc.Mode = m
	return nil
}

// Stage returns the stage currently executing.
func (rc *RequestContext) Stage() Stage {
	return rc.stage
}

// ChunkHandler returns a function that forwards streamed text for the current
// stage, or nil when the caller did not ask for streaming.
func (rc *RequestContext) ChunkHandler() func(string) {
	if rc.onChunk == nil {
		return nil
	}
	stage, cb := rc.stage, rc.onChunk
	return func(chunk string) {
		cb(stage, chunk)
	}
}

// Artifact returns the text a stage produced, for persistence.
func (rc *RequestContext) Artifact(stage Stage) (string, bool) {
	var text string
	switch stage {
	case StageRouter:
		text = string(rc.Mode)
	case StageCollector:
		text = rc.ProfileJSON
	case StageAnalyzer:
		text = rc.JobAnalysis
	case StageWriter:
		text = rc.Resume
	case StageReviewer:
		text = rc.Feedback
	case StageOutputComposer:
		text = rc.Output
	}
	return text, text != ""
}
