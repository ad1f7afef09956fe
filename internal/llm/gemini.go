package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// streamBuffer is the chunk buffer between the Gemini iterator and the reader.
const streamBuffer = 8

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if config == nil {
		config = DefaultGeminiConfig()
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate returns the complete response text for the conversation.
func (c *GeminiClient) Generate(ctx context.Context, messages []*schema.Message, opts ...Option) (string, error) {
	o := ApplyOptions(opts...)
	model, name, err := c.model(o)
	if err != nil {
		return "", err
	}

	session, last, err := c.session(model, messages)
	if err != nil {
		return "", &GenerationError{Model: name, Message: "invalid conversation", Cause: err}
	}

	resp, err := session.SendMessage(ctx, last...)
	if err != nil {
		return "", classify(name, o, err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", &GenerationError{Model: name, Message: "empty response", Cause: err}
	}
	return text, nil
}

// Stream returns response chunks as Gemini produces them.
func (c *GeminiClient) Stream(ctx context.Context, messages []*schema.Message, opts ...Option) (*schema.StreamReader[string], error) {
	o := ApplyOptions(opts...)
	model, name, err := c.model(o)
	if err != nil {
		return nil, err
	}

	session, last, err := c.session(model, messages)
	if err != nil {
		return nil, &GenerationError{Model: name, Message: "invalid conversation", Cause: err}
	}

	iter := session.SendMessageStream(ctx, last...)
	reader, writer := schema.Pipe[string](streamBuffer)

	go func() {
		defer writer.Close()
		for {
			resp, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				writer.Send("", classify(name, o, err))
				return
			}
			text, err := extractTextFromResponse(resp)
			if err != nil {
				// Chunks without text parts (safety or usage metadata) carry nothing to forward.
				continue
			}
			if closed := writer.Send(text, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *GeminiClient) model(o Options) (*genai.GenerativeModel, string, error) {
	name := c.config.GetModel(o.Tier)
	if name == "" {
		return nil, "", &GenerationError{Message: fmt.Sprintf("no model configured for tier %s", o.Tier)}
	}

	model := c.client.GenerativeModel(name)

	temperature := c.config.Temperature
	if o.Temperature != nil {
		temperature = *o.Temperature
	}
	model.SetTemperature(temperature)

	maxTokens := c.config.MaxOutputTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}
	if maxTokens > 0 {
		model.SetMaxOutputTokens(int32(maxTokens))
	}

	if o.JSON {
		model.ResponseMIMEType = "application/json"
	}

	return model, name, nil
}

// session maps eino messages onto a Gemini chat: system messages become the
// system instruction, earlier turns become history, and the final user turn is
// returned as the parts to send.
func (c *GeminiClient) session(model *genai.GenerativeModel, messages []*schema.Message) (*genai.ChatSession, []genai.Part, error) {
	var system []string
	var turns []*genai.Content

	for _, msg := range messages {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			turns = append(turns, &genai.Content{Role: "model", Parts: []genai.Part{genai.Text(msg.Content)}})
		default:
			turns = append(turns, &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(msg.Content)}})
		}
	}

	if len(turns) == 0 {
		return nil, nil, errors.New("no user message")
	}
	last := turns[len(turns)-1]
	if last.Role != "user" {
		return nil, nil, errors.New("conversation must end with a user message")
	}

	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(strings.Join(system, "\n\n"))}}
	}

	session := model.StartChat()
	session.History = turns[:len(turns)-1]
	return session, last.Parts, nil
}

// classify wraps a provider error, flagging JSON-mode rejections so callers can
// retry without structured output.
func classify(model string, o Options, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &GenerationError{Model: model, Message: "call cancelled", Cause: err}
	}
	if o.JSON && status.Code(err) == codes.InvalidArgument {
		return &GenerationError{
			Model:   model,
			Message: "structured output rejected",
			Cause:   fmt.Errorf("%w: %v", ErrStructuredOutputUnsupported, err),
		}
	}
	return &GenerationError{Model: model, Message: "failed to generate content", Cause: err}
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}
