package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy describes how start-up work against a backing store is retried.
type RetryPolicy struct {
	Attempts int
	BaseWait time.Duration
	// Jitter is the fraction of each wait that is randomised in both
	// directions, so 0.25 yields waits within ±25% of the base.
	Jitter float64
}

// StartupRetry is used for connecting and migrating: 3 attempts waiting
// about 1s and then 2s between them.
var StartupRetry = RetryPolicy{Attempts: 3, BaseWait: time.Second, Jitter: 0.25}

// Backoff returns the wait before retry n (0-indexed). The base doubles per
// retry.
func (p RetryPolicy) Backoff(n int) time.Duration {
	base := p.BaseWait << max(n, 0)
	spread := float64(base) * p.Jitter * (2*rand.Float64() - 1) // #nosec G404 -- jitter only
	return base + time.Duration(spread)
}

// Do runs fn until it succeeds, fails with an error retryable rejects, the
// attempts run out or ctx ends. A nil retryable retries every error.
func (p RetryPolicy) Do(ctx context.Context, logger *slog.Logger, what string, retryable func(error) bool, fn func(context.Context) error) error {
	attempts := max(p.Attempts, 1)
	var err error
	for n := 0; n < attempts; n++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if n == attempts-1 {
			break
		}

		wait := p.Backoff(n)
		if logger != nil {
			logger.Warn(what+" failed, retrying",
				slog.Int("attempt", n+1),
				slog.Int("max_attempts", attempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: gave up waiting to retry: %w", what, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, attempts, err)
}
