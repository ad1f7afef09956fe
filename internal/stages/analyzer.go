package stages

import (
	"context"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Analyzer summarizes the job description into requirements and keywords.
type Analyzer struct {
	gen *generator
}

// Handle implements pipeline.Handler.
func (a *Analyzer) Handle(ctx context.Context, rc *pipeline.RequestContext) error {
	user := render("analyzer-user", map[string]string{"JobDescription": rc.JobDescription})
	text, err := a.gen.call(ctx, rc, true, instruction("analyzer-system"), user)
	if err != nil {
		return err
	}
	rc.JobAnalysis = llm.StripCodeFences(text)
	return nil
}
