// Package stages implements the handlers for each node of the resume
// assistant stage graph. Every handler shares one injected llm.Client.
package stages

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/schema"

	"github.com/jonathan/resume-assistant/internal/llm"
	"github.com/jonathan/resume-assistant/internal/pipeline"
	"github.com/jonathan/resume-assistant/internal/prompts"
)

// Token limits per stage.
const (
	routerMaxTokens    = 200
	collectorMaxTokens = llm.DefaultMaxOutputTokens
)

// Handlers returns a handler for every stage, all backed by client.
func Handlers(client llm.Client, config *llm.Config) map[pipeline.Stage]pipeline.Handler {
	g := &generator{client: client, config: config}
	return map[pipeline.Stage]pipeline.Handler{
		pipeline.StageRouter:         &Router{gen: g},
		pipeline.StageCollector:      &Collector{gen: g},
		pipeline.StageAnalyzer:       &Analyzer{gen: g},
		pipeline.StageWriter:         &Writer{gen: g},
		pipeline.StageReviewer:       &Reviewer{gen: g},
		pipeline.StageOutputComposer: Composer{},
	}
}

// generator performs a single bounded call to the text-generation service.
type generator struct {
	client llm.Client
	config *llm.Config
}

// call sends a system instruction and one user message. When stream is set
// and the request asked for streaming, chunks are forwarded as they arrive.
func (g *generator) call(ctx context.Context, rc *pipeline.RequestContext, stream bool, system, user string, opts ...llm.Option) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout())
	defer cancel()

	messages := []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}

	var (
		text string
		err  error
	)
	if onChunk := rc.ChunkHandler(); stream && onChunk != nil {
		text, err = llm.Complete(ctx, g.client, messages, onChunk, opts...)
	} else {
		text, err = g.client.Generate(ctx, messages, opts...)
	}
	if err != nil {
		return "", asGenerationError(ctx, rc.Stage(), err)
	}
	return text, nil
}

func asGenerationError(ctx context.Context, stage pipeline.Stage, err error) error {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	msg := string(stage) + " call failed"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		msg = string(stage) + " call timed out"
	}
	return &llm.GenerationError{Message: msg, Cause: err}
}

func render(key string, data map[string]string) string {
	return prompts.MustRender(prompts.Assistant, key, data)
}

func instruction(key string) string {
	return prompts.MustGet(prompts.Assistant, key)
}
