package pipeline

// ProgressEvent represents a progress update during a run.
type ProgressEvent struct {
	Step     string `json:"step"`
	Category string `json:"category"`
	Message  string `json:"message"`
	RunID    string `json:"run_id,omitempty"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when run progress occurs.
type ProgressCallback func(event ProgressEvent)

// Progress steps that are not stage names. StepChunk names streamed text
// forwarded from an OnChunk callback.
const (
	StepRunStarted   = "run_started"
	StepRunCompleted = "run_completed"
	StepChunk        = "chunk"
)

// ChunkContent is the Content payload of a chunk event.
type ChunkContent struct {
	Stage Stage  `json:"stage"`
	Text  string `json:"text"`
}

func emitProgress(cb ProgressCallback, runID, step, category, message string, content any) {
	if cb == nil {
		return
	}
	cb(ProgressEvent{
		Step:     step,
		Category: category,
		Message:  message,
		RunID:    runID,
		Content:  content,
	})
}
