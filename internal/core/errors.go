// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Errorf wraps a formatted cause under the code of base.
func Errorf(base *Error, format string, args ...any) *Error {
	return WrapError(base, fmt.Errorf(format, args...))
}

// Predefined errors
var (
	// Credential errors
	ErrAuthentication = &Error{Code: "AUTHENTICATION", Message: "authentication failed"}

	// Provider errors
	ErrRateLimited      = &Error{Code: "RATE_LIMITED", Message: "provider rate limit exceeded"}
	ErrTransientNetwork = &Error{Code: "TRANSIENT_NETWORK", Message: "transient network failure"}
	ErrProvider         = &Error{Code: "PROVIDER_ERROR", Message: "provider request failed"}

	// Caller errors
	ErrInvalidRequest = &Error{Code: "INVALID_REQUEST", Message: "invalid request"}

	// Tokenizer errors
	ErrUnsupportedCharacter = &Error{Code: "UNSUPPORTED_CHARACTER", Message: "text not representable in vocabulary"}
	ErrInvalidTokenID       = &Error{Code: "INVALID_TOKEN_ID", Message: "token id outside vocabulary"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)

// Retryable reports whether err is a kind the caller may retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTransientNetwork)
}

// Code extracts the code of the outermost *Error in err's chain, or "" if none.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
