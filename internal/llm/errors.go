package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"unicode/utf8"
)

// ConfigurationError is returned when a client cannot be constructed.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("llm configuration: %s: %s", e.Field, e.Message)
}

// ProviderHTTPError means the provider answered with a non-2xx status.
type ProviderHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// TransportError means no response was received (connect failure, timeout, cancel).
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("provider unreachable: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NoToolCallError means the provider answered but did not call the extraction tool.
// Content carries whatever plain text the model produced instead.
type NoToolCallError struct {
	Content string
}

func (e *NoToolCallError) Error() string {
	if e.Content == "" {
		return "provider response contained no tool call"
	}
	return fmt.Sprintf("provider response contained no tool call (content: %q)", truncate(e.Content, 200))
}

// DecodeError means the provider answered but its arguments did not satisfy the schema.
type DecodeError struct {
	Cause error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tool arguments: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// Retryable reports whether a caller may reasonably try the same request again:
// transport failures other than cancellation, 429, and 5xx. Clients never retry on
// their own.
func Retryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	var he *ProviderHTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	return false
}

func decodeErrorf(format string, args ...any) *DecodeError {
	return &DecodeError{Cause: fmt.Errorf(format, args...)}
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + "...(truncated)"
}
