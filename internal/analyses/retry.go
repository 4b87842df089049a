package analyses

import (
	"context"
	"log"
	"time"

	"health-backend/internal/llm"
)

// RetryPolicy controls how completion-service calls are retried: bounded
// attempts, exponential backoff, and a predicate deciding which failures
// are worth another try. Kept as data so it is testable on its own.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy retries rate limits, timeouts and 5xx responses up to
// four attempts total. Auth and quota failures are never retried.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   300 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Retryable:   llm.Retryable,
	}
}

// Delay returns the backoff before the given retry (1-based), doubling from
// BaseDelay and capped at MaxDelay.
func (p RetryPolicy) Delay(retry int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

type retryingClient struct {
	base       llm.Client
	policy     RetryPolicy
	analysisID string
	requestID  string
}

// WithRetry wraps a completion client with the given policy.
func WithRetry(base llm.Client, policy RetryPolicy, analysisID, requestID string) llm.Client {
	if base == nil {
		return nil
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Retryable == nil {
		policy.Retryable = llm.Retryable
	}
	return retryingClient{base: base, policy: policy, analysisID: analysisID, requestID: requestID}
}

func (r retryingClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("llm retry attempt=%d request_id=%s analysis_id=%s error=%v",
				attempt, r.requestID, r.analysisID, lastErr)
			select {
			case <-time.After(r.policy.Delay(attempt - 1)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		out, err := r.base.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !r.policy.Retryable(err) {
			return "", err
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
