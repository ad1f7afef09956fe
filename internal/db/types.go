package db

import (
	"time"

	"github.com/google/uuid"
)

// Run status values.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Artifact steps written by the assistant stages.
const (
	StepMode        = "router"
	StepProfile     = "collector"
	StepJobAnalysis = "analyzer"
	StepResume      = "writer"
	StepFeedback    = "reviewer"
	StepOutput      = "output_composer"
)

// Run represents an assistant run record
type Run struct {
	ID             uuid.UUID  `json:"id"`
	Mode           string     `json:"mode,omitempty"`
	Status         string     `json:"status"`
	UserInput      string     `json:"user_input"`
	JobDescription string     `json:"job_description,omitempty"`
	Output         string     `json:"output,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Artifact represents an artifact record
type Artifact struct {
	ID          uuid.UUID `json:"id"`
	RunID       uuid.UUID `json:"run_id"`
	Step        string    `json:"step"`
	Category    string    `json:"category"`
	Content     any       `json:"content,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ArtifactSummary is a lightweight view of an artifact for listing
type ArtifactSummary struct {
	ID        uuid.UUID `json:"id"`
	Step      string    `json:"step"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
	HasJSON   bool      `json:"has_json"`
	HasText   bool      `json:"has_text"`
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Mode   string
	Status string
	Limit  int
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50
