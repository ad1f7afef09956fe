package stages

import (
	"context"
	"strings"

	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Section labels used in composed output.
const (
	LabelProfile  = "## User Profile"
	LabelAnalysis = "## Job Analysis"
	LabelResume   = "## Generated Resume"
	LabelFeedback = "## Resume Feedback"
)

// Composer renders the context fields selected by the mode into the final
// response text.
type Composer struct{}

// Handle implements pipeline.Handler.
func (Composer) Handle(_ context.Context, rc *pipeline.RequestContext) error {
	rc.Output = Compose(rc)
	return nil
}

// Compose joins the labeled sections for rc.Mode with blank lines. Any mode
// other than the three richer ones yields the job analysis alone.
func Compose(rc *pipeline.RequestContext) string {
	profile := section(LabelProfile, rc.ProfileJSON)
	analysis := section(LabelAnalysis, rc.JobAnalysis)
	resume := section(LabelResume, rc.Resume)
	feedback := section(LabelFeedback, rc.Feedback)

	var parts []string
	switch rc.Mode {
	case pipeline.ModeFullPipeline:
		parts = []string{profile, analysis, resume, feedback}
	case pipeline.ModeWriteOnly:
		parts = []string{analysis, resume}
	case pipeline.ModeReviewOnly:
		parts = []string{analysis, feedback}
	default:
		parts = []string{analysis}
	}
	return strings.Join(parts, "\n\n")
}

func section(label, body string) string {
	return label + "\n" + body
}
