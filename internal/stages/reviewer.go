package stages

import (
	"context"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Reviewer critiques a resume against the job analysis. Without a drafted
// resume the raw user input is reviewed.
type Reviewer struct {
	gen *generator
}

// Handle implements pipeline.Handler.
func (r *Reviewer) Handle(ctx context.Context, rc *pipeline.RequestContext) error {
	resume := rc.Resume
	if resume == "" {
		resume = rc.UserInput
	}

	user := render("reviewer-user", map[string]string{
		"Resume":      resume,
		"JobAnalysis": rc.JobAnalysis,
	})
	text, err := r.gen.call(ctx, rc, true, instruction("reviewer-system"), user)
	if err != nil {
		return err
	}
	rc.Feedback = llm.StripCodeFences(text)
	return nil
}
