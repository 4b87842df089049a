package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorKind classifies completion-service failures. Auth and quota failures
// are terminal; the rest are candidates for retry.
type ErrorKind string

const (
	KindAuth        ErrorKind = "auth"
	KindRateLimited ErrorKind = "rate_limited"
	KindTimeout     ErrorKind = "timeout"
	KindService     ErrorKind = "service"
)

// APIError is a typed completion-service failure.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm %s (http %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm %s: %s", e.Kind, e.Message)
}

// KindOf extracts the error kind, classifying transport errors that carry
// no APIError. Unknown errors map to KindService.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	if strings.Contains(strings.ToLower(err.Error()), "client.timeout") {
		return KindTimeout
	}
	return KindService
}

// Retryable reports whether a failure of this kind may succeed on retry.
// Auth failures never do.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	switch KindOf(err) {
	case KindRateLimited, KindTimeout, KindService:
		return true
	default:
		return false
	}
}
