package stages

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/parsing"
	"github.com/jonathan/resume-assistant/internal/pipeline"
)

// Collector turns the user's free text into a structured profile.
//
// Input that already reads like a resume is parsed deterministically without
// calling the service. Otherwise the service is asked for JSON, once more in
// plain mode if structured output is rejected, and its answer is arbitrated
// against the deterministic parser.
type Collector struct {
	gen *generator
}

// Handle implements pipeline.Handler.
func (c *Collector) Handle(ctx context.Context, rc *pipeline.RequestContext) error {
	log := zerolog.Ctx(ctx)

	var res parsing.Resolution
	if parsing.LooksLikeResume(rc.UserInput) {
		log.Debug().Msg("input looks like a resume, parsing directly")
		res = parsing.Resolution{Profile: parsing.FallbackParse(rc.UserInput), UsedFallback: true}
	} else {
		raw, err := c.extract(ctx, rc)
		if err != nil {
			return err
		}
		res = parsing.ResolveProfile(parsing.ExtractJSONObject(llm.CleanJSONBlock(raw)), rc.UserInput)
		if res.UsedFallback {
			log.Warn().Err(res.Reason).Msg("primary extraction unusable, using fallback parser")
		}
	}

	profileJSON, err := res.Profile.JSON()
	if err != nil {
		return err
	}
	rc.Profile = &res.Profile
	rc.ProfileJSON = profileJSON
	rc.UsedFallback = res.UsedFallback
	return nil
}

func (c *Collector) extract(ctx context.Context, rc *pipeline.RequestContext) (string, error) {
	system := instruction("collector-system")
	user := render("collector-user", map[string]string{"UserInput": rc.UserInput})

	raw, err := c.gen.call(ctx, rc, true, system, user,
		llm.WithJSON(),
		llm.WithMaxTokens(collectorMaxTokens),
	)
	if err == nil || !errors.Is(err, llm.ErrStructuredOutputUnsupported) {
		return raw, err
	}

	zerolog.Ctx(ctx).Info().Err(err).Msg("structured output rejected, retrying in plain mode")
	return c.gen.call(ctx, rc, true, system, user, llm.WithMaxTokens(collectorMaxTokens))
}
