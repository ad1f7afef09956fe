package llm

import (
	"context"
	"errors"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// EinoClient adapts any eino chat model to Client.
//
// eino models expose no portable JSON-mode switch, so a call made WithJSON
// fails with ErrStructuredOutputUnsupported and the caller retries in plain mode.
type EinoClient struct {
	model  model.BaseChatModel
	config *Config
}

// NewEinoClient wraps an eino chat model. config supplies default temperature
// and token limits, and maps each call's tier to a model name.
func NewEinoClient(m model.BaseChatModel, config *Config) *EinoClient {
	if config == nil {
		config = DefaultConfig()
	}
	return &EinoClient{model: m, config: config}
}

// Generate returns the complete response text.
func (c *EinoClient) Generate(ctx context.Context, messages []*schema.Message, opts ...Option) (string, error) {
	o := ApplyOptions(opts...)
	if o.JSON {
		return "", &GenerationError{Message: "structured output rejected", Cause: ErrStructuredOutputUnsupported}
	}

	msg, err := c.model.Generate(ctx, messages, c.modelOptions(o)...)
	if err != nil {
		return "", wrapEinoError(err)
	}
	if msg == nil {
		return "", &GenerationError{Message: "empty response"}
	}
	return msg.Content, nil
}

// Stream returns the model's message stream converted to text chunks.
func (c *EinoClient) Stream(ctx context.Context, messages []*schema.Message, opts ...Option) (*schema.StreamReader[string], error) {
	o := ApplyOptions(opts...)
	if o.JSON {
		return nil, &GenerationError{Message: "structured output rejected", Cause: ErrStructuredOutputUnsupported}
	}

	stream, err := c.model.Stream(ctx, messages, c.modelOptions(o)...)
	if err != nil {
		return nil, wrapEinoError(err)
	}

	return schema.StreamReaderWithConvert(stream, func(msg *schema.Message) (string, error) {
		if msg == nil {
			return "", nil
		}
		return msg.Content, nil
	}), nil
}

// Close is a no-op; the wrapped model owns its own resources.
func (c *EinoClient) Close() error {
	return nil
}

func (c *EinoClient) modelOptions(o Options) []model.Option {
	temperature := c.config.Temperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	maxTokens := c.config.MaxOutputTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}

	opts := []model.Option{model.WithTemperature(temperature)}
	if name := c.config.GetModel(o.Tier); name != "" {
		opts = append(opts, model.WithModel(name))
	}
	if maxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(maxTokens))
	}
	return opts
}

func wrapEinoError(err error) error {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &GenerationError{Message: "call cancelled", Cause: err}
	}
	return &GenerationError{Message: "failed to generate content", Cause: err}
}
