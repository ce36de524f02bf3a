// internal/llm/openai/openai.go
package openai

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/newthinker/llmlab/internal/llm"
	"github.com/sashabaranov/go-openai"
)

// DefaultKeyPrefix is the prefix every OpenAI secret key carries.
const DefaultKeyPrefix = "sk-"

// Config holds explicit client settings. Nothing is read from the environment.
type Config struct {
	APIKey string
	// KeyPrefix is checked before every call. Empty disables the check, which
	// compatible self-hosted endpoints need.
	KeyPrefix      string
	BaseURL        string
	Organization   string
	HTTPClient     *http.Client
	ContextWindows map[string]int
}

// Client implements llm.Client against the OpenAI completion and chat endpoints.
// It keeps no per-call state and is safe for concurrent use.
type Client struct {
	client    *openai.Client
	apiKey    string
	keyPrefix string
	windows   map[string]int
}

var _ llm.Client = (*Client)(nil)

// New creates a new OpenAI client. Credentials are validated per call so that
// a missing key surfaces as an authentication error from the call itself.
func New(cfg Config) *Client {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	if cfg.Organization != "" {
		oc.OrgID = cfg.Organization
	}
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}
	return &Client{
		client:    openai.NewClientWithConfig(oc),
		apiKey:    cfg.APIKey,
		keyPrefix: cfg.KeyPrefix,
		windows:   cfg.ContextWindows,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return "openai"
}

func (c *Client) authorize() error {
	if c.apiKey == "" {
		return core.Errorf(core.ErrAuthentication, "api key not set")
	}
	if c.keyPrefix != "" && !strings.HasPrefix(c.apiKey, c.keyPrefix) {
		return core.Errorf(core.ErrAuthentication, "api key does not start with %q", c.keyPrefix)
	}
	return nil
}

// Generate sends a prompt to the completion endpoint.
func (c *Client) Generate(ctx context.Context, req llm.GenerationRequest, model string) (*llm.GenerationResult, error) {
	if err := c.authorize(); err != nil {
		return nil, err
	}
	if model == "" {
		return nil, core.Errorf(core.ErrInvalidRequest, "model required")
	}
	if err := req.Validate(llm.ContextWindow(model, c.windows)); err != nil {
		return nil, err
	}

	creq := openai.CompletionRequest{
		Model:     model,
		Prompt:    req.Prompt,
		MaxTokens: req.MaxTokens,
	}
	creq.Temperature, creq.TopP = samplingParams(req.Sampling)

	resp, err := c.client.CreateCompletion(ctx, creq)
	if err != nil {
		return nil, classify(fmt.Errorf("openai completion: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, core.Errorf(core.ErrProvider, "completion returned no choices")
	}

	usage := llm.Usage{}
	if resp.Usage != nil {
		usage = llm.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens)
	}

	choice := resp.Choices[0]
	return &llm.GenerationResult{
		Text:         choice.Text,
		FinishReason: llm.ParseFinishReason(choice.FinishReason),
		Usage:        usage,
		Model:        respModel(resp.Model, model),
	}, nil
}

// Chat sends the conversation, in the given order, to the chat endpoint and
// returns the single assistant reply. The conversation is not retained.
func (c *Client) Chat(ctx context.Context, conv []llm.Message, model string, sampling llm.Sampling) (*llm.ChatResult, error) {
	if err := c.authorize(); err != nil {
		return nil, err
	}
	if model == "" {
		return nil, core.Errorf(core.ErrInvalidRequest, "model required")
	}
	if err := llm.ValidateConversation(conv); err != nil {
		return nil, err
	}
	if err := sampling.Validate(); err != nil {
		return nil, err
	}

	messages := make([]openai.ChatCompletionMessage, len(conv))
	for i, m := range conv {
		messages[i] = openai.ChatCompletionMessage{
			Role:    string(m.Role),
			Content: m.Content,
		}
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	chatReq.Temperature, chatReq.TopP = samplingParams(sampling)

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, classify(fmt.Errorf("openai chat: %w", err))
	}
	if len(resp.Choices) == 0 {
		return nil, core.Errorf(core.ErrProvider, "chat returned no choices")
	}

	choice := resp.Choices[0]
	return &llm.ChatResult{
		Role:         llm.RoleAssistant,
		Content:      choice.Message.Content,
		FinishReason: llm.ParseFinishReason(string(choice.FinishReason)),
		Usage:        llm.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens),
		Model:        respModel(resp.Model, model),
	}, nil
}

// respModel prefers the model the provider reports, which may be a dated
// snapshot of the requested alias.
func respModel(reported, requested string) string {
	if reported != "" {
		return reported
	}
	return requested
}

// samplingParams converts the sampling choice into wire values. go-openai omits
// zero floats, so an explicit temperature of zero is sent as the smallest
// positive float32 instead of silently falling back to the provider default.
func samplingParams(s llm.Sampling) (temperature, topP float32) {
	if s.Temperature != nil {
		temperature = float32(*s.Temperature)
		if temperature == 0 {
			temperature = math.SmallestNonzeroFloat32
		}
	}
	if s.TopP != nil {
		topP = float32(*s.TopP)
	}
	return temperature, topP
}
