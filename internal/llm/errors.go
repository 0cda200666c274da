package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindUnavailable covers network failures, 5xx responses and an
	// unconfigured provider.
	KindUnavailable Kind = iota + 1
	KindRateLimited
	// KindInvalidResponse means the output was empty or failed the
	// requested schema.
	KindInvalidResponse
	// KindTruncated means generation stopped at MaxTokens.
	KindTruncated
	// KindRefused means the model declined to answer.
	KindRefused
	// KindRejected means the provider rejected the request itself (4xx
	// other than 429). Retrying cannot help.
	KindRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRateLimited:
		return "rate_limit"
	case KindInvalidResponse:
		return "invalid_response"
	case KindTruncated:
		return "max_tokens"
	case KindRefused:
		return "refused"
	case KindRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Error is the error every Provider returns for a failed generation.
type Error struct {
	Kind     Kind
	Provider string
	// Status is the upstream HTTP status, 0 when there was none.
	Status int
	// RetryAfter is the provider's requested back-off for rate limits.
	RetryAfter time.Duration
	// Content is the offending output for invalid or truncated responses.
	Content json.RawMessage
	Err     error
}

func (e *Error) Error() string {
	msg := "llm " + e.Kind.String()
	if e.Provider != "" {
		msg = e.Provider + ": " + msg
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Unavailable builds a KindUnavailable error.
func Unavailable(provider string, err error) *Error {
	return &Error{Kind: KindUnavailable, Provider: provider, Err: err}
}

// fromStatus classifies an upstream API error by HTTP status. A zero
// status means the request never got an answer.
func fromStatus(provider string, status int, err error) *Error {
	e := &Error{Provider: provider, Status: status, Err: err}
	switch {
	case status == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
	case status >= 500, status == 0, status == http.StatusRequestTimeout:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindRejected
	}
	return e
}
