package api

import (
	"context"
	"time"
)

// RetryPolicy configures retries of requests that got no response.
//
// Backoff is linear and has no jitter: the n-th retry waits n × BaseDelay.
// Failures that carried a response are never retried.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration
}

// DefaultRetryPolicy returns three attempts with 1s and 2s waits.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultRetryDelay,
	}
}

// Backoff returns the wait before the given retry (1 for the first retry).
func (p RetryPolicy) Backoff(retry int) time.Duration {
	if retry < 1 {
		return 0
	}
	return time.Duration(retry) * p.BaseDelay
}

// ShouldRetry reports whether another attempt is allowed after attempt
// (1-based) failed with a retryable error.
func (p RetryPolicy) ShouldRetry(attempt int) bool {
	return attempt < p.MaxAttempts
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
