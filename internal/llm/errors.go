package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrorKind classifies a failed Generate call.
type ErrorKind int

const (
	// KindUnavailable covers network failures and 5xx responses.
	KindUnavailable ErrorKind = iota
	// KindRateLimited is a 429 from the backend.
	KindRateLimited
	// KindInvalidOutput means the model answered but the content failed
	// JSON parsing, schema validation or the schema's own Check.
	KindInvalidOutput
	// KindTruncated means generation stopped at MaxTokens.
	KindTruncated
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimited:
		return "rate limited"
	case KindInvalidOutput:
		return "invalid output"
	case KindTruncated:
		return "truncated"
	default:
		return "unavailable"
	}
}

// Error is returned by every backend. Purpose and Schema identify the
// screening step (question generation, risk assessment) that failed.
type Error struct {
	Kind       ErrorKind
	Backend    string
	Purpose    string
	Schema     string
	RetryAfter time.Duration
	Content    json.RawMessage
	Err        error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("llm")
	if e.Backend != "" {
		b.WriteString(" " + e.Backend)
	}
	if e.Purpose != "" {
		b.WriteString(" [" + e.Purpose + "]")
	}
	b.WriteString(": ")
	switch e.Kind {
	case KindInvalidOutput:
		fmt.Fprintf(&b, "output rejected by schema %q", e.Schema)
	case KindTruncated:
		fmt.Fprintf(&b, "%s output hit the token limit", e.Schema)
	case KindRateLimited:
		b.WriteString("rate limited")
		if e.RetryAfter > 0 {
			fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
		}
	default:
		b.WriteString("backend unavailable")
	}
	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of an *Error anywhere in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Retryable reports whether another attempt could succeed. Cancellation
// and truncation are final; anything unclassified is treated as transient.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	kind, ok := KindOf(err)
	return !ok || kind != KindTruncated
}

// statusError maps an HTTP status from a backend SDK to an *Error.
func statusError(backend string, status int, retryAfter time.Duration, err error) *Error {
	e := &Error{Kind: KindUnavailable, Backend: backend, Err: err}
	if status == http.StatusTooManyRequests {
		e.Kind = KindRateLimited
		e.RetryAfter = retryAfter
	}
	return e
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
