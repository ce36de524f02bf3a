// Package mock provides a canned-response llm.Client for tests.
package mock

import (
	"context"
	"sync"

	"github.com/newthinker/llmlab/internal/llm"
)

// Response is a canned reply. Err, when set, is returned instead of a result.
type Response struct {
	Text         string
	FinishReason llm.FinishReason
	Usage        llm.Usage
	Err          error
}

// Call records one request received by the mock.
type Call struct {
	Kind         string // "completion" or "chat"
	Model        string
	Request      llm.GenerationRequest
	Conversation []llm.Message
	Sampling     llm.Sampling
}

// Client returns responses in sequence; after the last one it keeps returning
// it. A Responder, when set, takes precedence over the sequence.
type Client struct {
	mu        sync.Mutex
	responses []Response
	idx       int
	calls     []Call

	// Responder computes the reply from the call when canned order is not enough.
	Responder func(Call) Response
}

var _ llm.Client = (*Client)(nil)

// New creates a mock that returns the given responses in order.
func New(responses ...Response) *Client {
	return &Client{responses: responses}
}

// Generate records the request and returns the next canned response.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest, model string) (*llm.GenerationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r := c.next(Call{Kind: "completion", Model: model, Request: req, Sampling: req.Sampling})
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.GenerationResult{
		Text:         r.Text,
		FinishReason: finish(r.FinishReason),
		Usage:        r.Usage,
		Model:        model,
	}, nil
}

// Chat records a copy of the conversation and returns the next canned response.
func (c *Client) Chat(ctx context.Context, conv []llm.Message, model string, sampling llm.Sampling) (*llm.ChatResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recorded := make([]llm.Message, len(conv))
	copy(recorded, conv)

	r := c.next(Call{Kind: "chat", Model: model, Conversation: recorded, Sampling: sampling})
	if r.Err != nil {
		return nil, r.Err
	}
	return &llm.ChatResult{
		Role:         llm.RoleAssistant,
		Content:      r.Text,
		FinishReason: finish(r.FinishReason),
		Usage:        r.Usage,
		Model:        model,
	}, nil
}

func (c *Client) next(call Call) Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, call)

	if c.Responder != nil {
		return c.Responder(call)
	}
	if len(c.responses) == 0 {
		return Response{}
	}
	r := c.responses[c.idx]
	if c.idx < len(c.responses)-1 {
		c.idx++
	}
	return r
}

func finish(f llm.FinishReason) llm.FinishReason {
	if f == "" {
		return llm.FinishStop
	}
	return f
}

// Calls returns a copy of all requests received by this mock.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// Reset clears call history and rewinds the response sequence.
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = nil
	c.idx = 0
}
