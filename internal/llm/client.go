package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Client is an abstraction over LLM providers.
//
// Messages are role-tagged eino messages; a system message carries the stage
// instruction and user messages carry the request fields.
type Client interface {
	// Generate returns the complete response text.
	Generate(ctx context.Context, messages []*schema.Message, opts ...Option) (string, error)
	// Stream returns response text chunks in order. The caller must Close the reader.
	Stream(ctx context.Context, messages []*schema.Message, opts ...Option) (*schema.StreamReader[string], error)
	// Close releases any resources held by the client
	Close() error
}

// Options holds per-call generation settings.
type Options struct {
	Tier        ModelTier
	JSON        bool
	MaxTokens   int
	Temperature *float32
}

// Option configures a single generation call.
type Option func(*Options)

// WithTier selects the model tier for the call.
func WithTier(tier ModelTier) Option {
	return func(o *Options) { o.Tier = tier }
}

// WithJSON asks the provider for structured JSON output.
func WithJSON() Option {
	return func(o *Options) { o.JSON = true }
}

// WithMaxTokens caps the number of output tokens.
func WithMaxTokens(n int) Option {
	return func(o *Options) { o.MaxTokens = n }
}

// WithTemperature overrides the configured sampling temperature.
func WithTemperature(t float32) Option {
	return func(o *Options) { o.Temperature = &t }
}

// ApplyOptions resolves call options against their defaults.
func ApplyOptions(opts ...Option) Options {
	o := Options{Tier: TierStandard}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	case ProviderOpenAI:
		m, err := NewOpenAIChatModel(apiKey, config.BaseURL, config.GetModel(TierStandard), nil)
		if err != nil {
			return nil, err
		}
		return NewEinoClient(m, config), nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", config.Provider)
	}
}

// Complete streams a response, passing each chunk to onChunk as it arrives, and
// returns the concatenated text. A nil onChunk is allowed.
func Complete(ctx context.Context, c Client, messages []*schema.Message, onChunk func(string), opts ...Option) (string, error) {
	stream, err := c.Stream(ctx, messages, opts...)
	if err != nil {
		return "", err
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", err
		}
		sb.WriteString(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}
