package openai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/sashabaranov/go-openai"
)

// requestRejections are raised by go-openai before anything is sent.
var requestRejections = []error{
	openai.ErrCompletionUnsupportedModel,
	openai.ErrCompletionRequestPromptTypeNotSupported,
	openai.ErrChatCompletionInvalidModel,
	openai.ErrReasoningModelMaxTokensDeprecated,
	openai.ErrReasoningModelLimitationsLogprobs,
	openai.ErrReasoningModelLimitationsOther,
}

// classify maps a go-openai failure onto the core error taxonomy, keeping the
// original error as the cause.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.WrapError(core.ErrTransientNetwork, err)
	}

	// RequestError may wrap an APIError without a status, so it goes first.
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fromStatus(reqErr.HTTPStatusCode, err)
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fromStatus(apiErr.HTTPStatusCode, err)
	}

	for _, sentinel := range requestRejections {
		if errors.Is(err, sentinel) {
			return core.WrapError(core.ErrInvalidRequest, err)
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return core.WrapError(core.ErrTransientNetwork, err)
	}

	return core.WrapError(core.ErrProvider, err)
}

func fromStatus(status int, err error) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return core.WrapError(core.ErrAuthentication, err)
	case status == http.StatusTooManyRequests:
		return core.WrapError(core.ErrRateLimited, err)
	case status == http.StatusRequestTimeout || status >= http.StatusInternalServerError:
		return core.WrapError(core.ErrTransientNetwork, err)
	default:
		return core.WrapError(core.ErrProvider, err)
	}
}
