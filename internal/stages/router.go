package stages

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Router classifies a request into a pipeline mode. A mode already present on
// the context (a caller hint) is kept and no call is made.
type Router struct {
	gen *generator
}

// Handle implements pipeline.Handler.
func (r *Router) Handle(ctx context.Context, rc *pipeline.RequestContext) error {
	if rc.Mode != "" {
		zerolog.Ctx(ctx).Debug().Str("mode", string(rc.Mode)).Msg("using mode hint")
		return nil
	}

	hasJD := "No"
	if rc.JobDescription != "" {
		hasJD = "Yes"
	}
	user := render("router-user", map[string]string{
		"UserInput":         rc.UserInput,
		"HasJobDescription": hasJD,
		"JobDescription":    rc.JobDescription,
	})

	answer, err := r.gen.call(ctx, rc, false, instruction("router-system"), user,
		llm.WithTier(llm.TierLite),
		llm.WithMaxTokens(routerMaxTokens),
		llm.WithTemperature(0),
	)
	if err != nil {
		return err
	}

	mode, err := pipeline.ParseMode(answer)
	if err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Str("mode", string(mode)).Msg("request classified")
	return rc.SetMode(mode)
}
