// Package llm defines the request/response model shared by the text-generation
// clients: prompts, conversations, sampling controls and token usage.
package llm

import (
	"context"
	"fmt"

	"github.com/newthinker/llmlab/internal/core"
)

// Completer extends a single prompt with generated text.
type Completer interface {
	Generate(ctx context.Context, req GenerationRequest, model string) (*GenerationResult, error)
}

// Chatter generates the next assistant message for a conversation.
type Chatter interface {
	Chat(ctx context.Context, conv []Message, model string, sampling Sampling) (*ChatResult, error)
}

// Client is a provider offering both endpoints.
type Client interface {
	Completer
	Chatter
}

// Role tags the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}

// Message represents a chat message
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// System, User and Assistant build messages of the matching role.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }

// ValidateConversation checks that conv is non-empty and every role is known.
func ValidateConversation(conv []Message) error {
	if len(conv) == 0 {
		return core.Errorf(core.ErrInvalidRequest, "conversation must contain at least one message")
	}
	for i, m := range conv {
		if !m.Role.Valid() {
			return core.Errorf(core.ErrInvalidRequest, "message %d has unknown role %q", i, m.Role)
		}
	}
	return nil
}

// GenerationRequest holds a single completion call. It is treated as immutable.
type GenerationRequest struct {
	Prompt    string
	MaxTokens int
	Sampling  Sampling
}

// Validate checks the request against the context window of the target model.
// A window of zero means the window is unknown and only positivity is checked.
func (r GenerationRequest) Validate(window int) error {
	if r.MaxTokens <= 0 {
		return core.Errorf(core.ErrInvalidRequest, "max tokens must be positive, got %d", r.MaxTokens)
	}
	if window > 0 && r.MaxTokens > window {
		return core.Errorf(core.ErrInvalidRequest, "max tokens %d exceeds context window %d", r.MaxTokens, window)
	}
	return r.Sampling.Validate()
}

// Usage tracks token consumption
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// NewUsage copies provider counts verbatim, deriving the total only when the
// provider left it out.
func NewUsage(prompt, completion, total int) Usage {
	if total == 0 {
		total = prompt + completion
	}
	return Usage{PromptTokens: prompt, CompletionTokens: completion, TotalTokens: total}
}

// Consistent reports whether prompt and completion tokens add up to the total.
func (u Usage) Consistent() bool {
	return u.PromptTokens+u.CompletionTokens == u.TotalTokens
}

// FinishReason says why generation stopped.
type FinishReason string

const (
	FinishStop   FinishReason = "stop"
	FinishLength FinishReason = "length"
	FinishOther  FinishReason = "other"
)

// ParseFinishReason maps a provider finish reason onto the three known kinds.
func ParseFinishReason(s string) FinishReason {
	switch s {
	case "stop":
		return FinishStop
	case "length":
		return FinishLength
	default:
		return FinishOther
	}
}

// GenerationResult holds the response of a completion call.
type GenerationResult struct {
	Text         string
	FinishReason FinishReason
	Usage        Usage
	Model        string
}

// GeneratedText returns the completion text.
func (r *GenerationResult) GeneratedText() string { return r.Text }

// TokenUsage returns the token counts reported by the provider.
func (r *GenerationResult) TokenUsage() Usage { return r.Usage }

// ChatResult holds the single assistant message produced by a chat call.
type ChatResult struct {
	Role         Role
	Content      string
	FinishReason FinishReason
	Usage        Usage
	Model        string
}

// Message returns the reply as a message the caller can append to the
// conversation for the next turn.
func (r *ChatResult) Message() Message {
	return Message{Role: r.Role, Content: r.Content}
}

// GeneratedText returns the assistant's reply.
func (r *ChatResult) GeneratedText() string { return r.Content }

// TokenUsage returns the token counts reported by the provider.
func (r *ChatResult) TokenUsage() Usage { return r.Usage }

func (r *ChatResult) String() string {
	return fmt.Sprintf("%s: %s", r.Role, r.Content)
}
