package stages

import (
	"context"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Writer drafts a LaTeX resume from the profile and the job analysis. When no
// profile was collected the raw user input is treated as the profile.
type Writer struct {
	gen *generator
}

// Handle implements pipeline.Handler.
func (w *Writer) Handle(ctx context.Context, rc *pipeline.RequestContext) error {
	profile := rc.ProfileJSON
	if profile == "" {
		profile = rc.UserInput
	}

	user := render("writer-user", map[string]string{
		"Profile":     profile,
		"JobAnalysis": rc.JobAnalysis,
	})
	text, err := w.gen.call(ctx, rc, true, instruction("writer-system"), user, llm.WithTier(llm.TierAdvanced))
	if err != nil {
		return err
	}
	rc.Resume = llm.StripCodeFences(text)
	return nil
}
