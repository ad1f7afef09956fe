package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// DefaultOpenAIBaseURL is used when an OpenAI-compatible provider has no base URL.
const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIChatModel is an eino chat model for any OpenAI-compatible
// chat completions endpoint.
type OpenAIChatModel struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOpenAIChatModel creates a chat model. defaultModel is used when a call
// does not name one through model.WithModel.
func NewOpenAIChatModel(apiKey, baseURL, defaultModel string, httpClient *http.Client) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &OpenAIChatModel{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      defaultModel,
		httpClient: httpClient,
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float32      `json:"temperature,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate implements model.BaseChatModel.
func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{Model: &m.model}, opts...)

	req := chatRequest{
		Model:       *options.Model,
		Messages:    make([]chatMessage, 0, len(input)),
		Temperature: options.Temperature,
		MaxTokens:   options.MaxTokens,
	}
	for _, msg := range input {
		req.Messages = append(req.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var decoded chatResponse
	decodeErr := json.Unmarshal(data, &decoded)
	if resp.StatusCode != http.StatusOK {
		if decodeErr == nil && decoded.Error != nil {
			return nil, &GenerationError{Model: req.Model, Message: fmt.Sprintf("HTTP status %d: %s", resp.StatusCode, decoded.Error.Message)}
		}
		return nil, &GenerationError{Model: req.Model, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}
	if decodeErr != nil {
		return nil, &GenerationError{Model: req.Model, Message: "invalid response body", Cause: decodeErr}
	}
	if len(decoded.Choices) == 0 {
		return nil, &GenerationError{Model: req.Model, Message: "no choices in response"}
	}

	return schema.AssistantMessage(decoded.Choices[0].Message.Content, nil), nil
}

// Stream implements model.BaseChatModel. The endpoint is called without
// streaming and the full reply is delivered as a single chunk.
func (m *OpenAIChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := m.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)
