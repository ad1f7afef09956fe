// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/jonathan/resume-assistant/internal/llm"
)

// Response is one scripted reply.
type Response struct {
	Text string
	Err  error
}

// Call records a request received by the fake.
type Call struct {
	Messages []*schema.Message
	Options  llm.Options
	Streamed bool
}

// System returns the system instruction of the call, if any.
func (c Call) System() string {
	for _, m := range c.Messages {
		if m.Role == schema.System {
			return m.Content
		}
	}
	return ""
}

// User returns the concatenated user content of the call.
func (c Call) User() string {
	var parts []string
	for _, m := range c.Messages {
		if m.Role == schema.User {
			parts = append(parts, m.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Client replays scripted responses in order, or answers through Respond when set.
type Client struct {
	// Respond, when non-nil, computes the reply for each call instead of the script.
	Respond func(Call) Response
	// ChunkSize splits streamed replies into chunks of this many bytes; 0 sends one chunk.
	ChunkSize int

	mu        sync.Mutex
	responses []Response
	calls     []Call
	closed    bool
}

// New returns a fake that replies with responses in order.
func New(responses ...Response) *Client {
	return &Client{responses: responses}
}

// Text is shorthand for a successful scripted reply.
func Text(s string) Response {
	return Response{Text: s}
}

// Fail is shorthand for a failed scripted reply.
func Fail(err error) Response {
	return Response{Err: err}
}

// Generate implements llm.Client.
func (c *Client) Generate(ctx context.Context, messages []*schema.Message, opts ...llm.Option) (string, error) {
	resp := c.next(Call{Messages: messages, Options: llm.ApplyOptions(opts...)})
	if err := ctx.Err(); err != nil {
		return "", &llm.GenerationError{Message: "call cancelled", Cause: err}
	}
	return resp.Text, resp.Err
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, messages []*schema.Message, opts ...llm.Option) (*schema.StreamReader[string], error) {
	resp := c.next(Call{Messages: messages, Options: llm.ApplyOptions(opts...), Streamed: true})
	if err := ctx.Err(); err != nil {
		return nil, &llm.GenerationError{Message: "call cancelled", Cause: err}
	}
	if resp.Err != nil {
		return nil, resp.Err
	}
	return schema.StreamReaderFromArray(c.chunks(resp.Text)), nil
}

// Close implements llm.Client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Calls returns the calls received so far.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.calls...)
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Client) next(call Call) Response {
	c.mu.Lock()
	c.calls = append(c.calls, call)
	respond := c.Respond
	var resp Response
	if respond == nil {
		if len(c.responses) == 0 {
			resp = Response{Err: errors.New("llmtest: no scripted response left")}
		} else {
			resp = c.responses[0]
			c.responses = c.responses[1:]
		}
	}
	c.mu.Unlock()

	if respond != nil {
		return respond(call)
	}
	return resp
}

func (c *Client) chunks(text string) []string {
	if c.ChunkSize <= 0 || len(text) <= c.ChunkSize {
		return []string{text}
	}
	var out []string
	for len(text) > c.ChunkSize {
		out = append(out, text[:c.ChunkSize])
		text = text[c.ChunkSize:]
	}
	if text != "" {
		out = append(out, text)
	}
	return out
}
