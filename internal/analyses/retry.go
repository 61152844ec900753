package analyses

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"strings"
	"time"

	"tat-backend/internal/llm"
)

// RetryPolicy bounds retries of the completion call. Only failures
// classified as transient are retried; contract violations never are.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      float64
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 300 * time.Millisecond
	}
	if p.Jitter < 0 || p.Jitter > 1 {
		p.Jitter = 0.2
	}
	return p
}

type retryingClient struct {
	base   llm.Client
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
	randFn func() float64
}

func newRetryingClient(base llm.Client, policy RetryPolicy) retryingClient {
	return retryingClient{
		base:   base,
		policy: policy.normalized(),
		sleep:  sleepCtx,
		randFn: rand.Float64,
	}
}

// Complete calls the base client with exponential backoff between transient
// failures. It returns the number of attempts made alongside the result.
func (r retryingClient) Complete(ctx context.Context, input llm.CompletionInput) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		out, err := r.base.Complete(ctx, input)
		if err == nil {
			return out, attempt, nil
		}
		lastErr = err
		if !isTransient(err) || attempt == r.policy.MaxAttempts {
			return "", attempt, lastErr
		}
		if err := r.sleep(ctx, r.backoff(attempt)); err != nil {
			return "", attempt, err
		}
	}
	return "", r.policy.MaxAttempts, lastErr
}

func (r retryingClient) backoff(attempt int) time.Duration {
	delay := r.policy.BaseDelay << (attempt - 1)
	if r.policy.Jitter > 0 {
		jitter := time.Duration(float64(delay) * r.policy.Jitter * r.randFn())
		delay += jitter
	}
	return delay
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "http status 5") || strings.Contains(msg, "server_error") {
		return true
	}
	if strings.Contains(msg, "http status 429") || strings.Contains(msg, "rate limit") || strings.Contains(msg, "rate_limit") {
		return true
	}
	if strings.Contains(msg, "timeout") && (strings.Contains(msg, "openai") || strings.Contains(msg, "llm") || strings.Contains(msg, "client.timeout")) {
		return true
	}
	if strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection closed") ||
		strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "tls handshake timeout") ||
		strings.Contains(msg, "eof") {
		return true
	}

	return false
}
