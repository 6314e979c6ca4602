package providers

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider failure. The set is closed and
// provider-agnostic; the retry engine keys off it.
type Kind int

const (
	// KindNetwork covers transport failures: connection reset, read
	// timeout, mid-stream close.
	KindNetwork Kind = iota
	// KindServiceUnavailable covers 5xx upstream brownouts.
	KindServiceUnavailable
	// KindRateLimited covers 429 and explicit provider rate signals.
	// Never retried.
	KindRateLimited
	// KindModelUnsupported covers 4xx responses indicating the chosen
	// model cannot do tool use. Never retried.
	KindModelUnsupported
	// KindAPIRequestFailed covers remaining 4xx/5xx responses.
	KindAPIRequestFailed
	// KindNoAPIKey means credentials are absent. Never retried.
	KindNoAPIKey
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindRateLimited:
		return "rate_limit_exceeded"
	case KindModelUnsupported:
		return "model_not_supported"
	case KindAPIRequestFailed:
		return "api_request_failed"
	case KindNoAPIKey:
		return "no_api_key"
	}
	return "unknown"
}

// Error is a classified provider failure.
type Error struct {
	Kind     Kind
	Provider string
	Status   int    // HTTP status, 0 for transport errors
	Message  string // response body excerpt or transport error text
}

func (e *Error) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (HTTP %d): %s", e.Provider, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Kind, e.Message)
}

// Retryable reports whether the retry engine may re-attempt after this error.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindNetwork, KindServiceUnavailable, KindAPIRequestFailed:
		return true
	}
	return false
}

// ErrRetriesExhausted is returned when the retry engine gives up on a
// retryable failure. The last underlying error is wrapped.
var ErrRetriesExhausted = errors.New("network retry failed")

// ErrShutdown is returned when a shutdown request aborts a backoff sleep.
// Callers map it onto their own interrupted path rather than treating it
// as a provider failure.
var ErrShutdown = errors.New("shutdown requested")

// classifyStatus maps an HTTP error status + body onto the taxonomy.
func classifyStatus(provider string, status int, body string) *Error {
	kind := KindAPIRequestFailed
	switch {
	case status == 429:
		kind = KindRateLimited
	case status >= 500:
		kind = KindServiceUnavailable
	case status >= 400 && status < 500 && mentionsToolUnsupported(body):
		kind = KindModelUnsupported
	}
	return &Error{Kind: kind, Provider: provider, Status: status, Message: truncate(body, 300)}
}

// netError wraps a transport failure (dial, reset, mid-stream close).
func netError(provider string, err error) *Error {
	return &Error{Kind: KindNetwork, Provider: provider, Message: err.Error()}
}

func mentionsToolUnsupported(body string) bool {
	b := strings.ToLower(body)
	if !strings.Contains(b, "tool") && !strings.Contains(b, "function") {
		return false
	}
	return strings.Contains(b, "not support") || strings.Contains(b, "unsupported") ||
		strings.Contains(b, "does not support") || strings.Contains(b, "no endpoints")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
