package analyses

import (
	"context"
	"errors"
	"testing"
	"time"

	"health-backend/internal/llm"
)

type scriptedClient struct {
	calls int
	errs  []error
	out   string
}

func (s *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	s.calls++
	if s.calls <= len(s.errs) && s.errs[s.calls-1] != nil {
		return "", s.errs[s.calls-1]
	}
	return s.out, nil
}

func fastPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
		Retryable:   llm.Retryable,
	}
}

func TestRetryRateLimitedThenSuccess(t *testing.T) {
	rl := &llm.APIError{Kind: llm.KindRateLimited, StatusCode: 429, Message: "slow down"}
	base := &scriptedClient{errs: []error{rl, rl, rl}, out: "analysis text"}
	client := WithRetry(base, fastPolicy(4), "a-1", "r-1")

	out, err := client.Complete(context.Background(), llm.Request{})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "analysis text" {
		t.Errorf("out = %q", out)
	}
	if base.calls != 4 {
		t.Errorf("calls = %d, want 4 (three retries then success)", base.calls)
	}
}

func TestRetryAuthErrorNeverRetried(t *testing.T) {
	authErr := &llm.APIError{Kind: llm.KindAuth, StatusCode: 401, Message: "bad key"}
	base := &scriptedClient{errs: []error{authErr}, out: "never"}
	client := WithRetry(base, fastPolicy(4), "a-1", "r-1")

	_, err := client.Complete(context.Background(), llm.Request{})
	var apiErr *llm.APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != llm.KindAuth {
		t.Fatalf("err = %v, want auth APIError", err)
	}
	if base.calls != 1 {
		t.Errorf("calls = %d, want 1 (auth errors are terminal)", base.calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	svcErr := &llm.APIError{Kind: llm.KindService, StatusCode: 500, Message: "boom"}
	base := &scriptedClient{errs: []error{svcErr, svcErr, svcErr, svcErr, svcErr}}
	client := WithRetry(base, fastPolicy(3), "a-1", "r-1")

	_, err := client.Complete(context.Background(), llm.Request{})
	if !errors.Is(err, error(svcErr)) {
		t.Fatalf("err = %v, want last service error", err)
	}
	if base.calls != 3 {
		t.Errorf("calls = %d, want 3", base.calls)
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	rl := &llm.APIError{Kind: llm.KindRateLimited, StatusCode: 429}
	base := &scriptedClient{errs: []error{rl, rl, rl, rl}}
	policy := fastPolicy(4)
	policy.BaseDelay = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	client := WithRetry(base, policy, "a-1", "r-1")
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Complete(ctx, llm.Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if base.calls > 2 {
		t.Errorf("calls = %d after cancellation", base.calls)
	}
}

func TestRetryDelaySchedule(t *testing.T) {
	p := RetryPolicy{BaseDelay: 300 * time.Millisecond, MaxDelay: 5 * time.Second}
	want := []time.Duration{
		300 * time.Millisecond,
		600 * time.Millisecond,
		1200 * time.Millisecond,
		2400 * time.Millisecond,
		4800 * time.Millisecond,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		if got := p.Delay(i + 1); got != w {
			t.Errorf("Delay(%d) = %v, want %v", i+1, got, w)
		}
	}
}
