package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/spherical/statement-extractor/internal/domain"
	"github.com/spherical/statement-extractor/internal/observability"
)

const (
	defaultMaxAttempts = 5
	defaultBackoffUnit = 5 * time.Second
)

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy retries calls rejected for rate limiting. Any other error is
// returned immediately.
type RetryPolicy struct {
	MaxAttempts int
	BackoffUnit time.Duration
	Sleep       SleepFunc
}

// DefaultRetryPolicy returns 5 attempts with a 5s quadratic backoff unit
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: defaultMaxAttempts,
		BackoffUnit: defaultBackoffUnit,
		Sleep:       SleepContext,
	}
}

// Backoff returns the wait after failed attempt n (0-based): n² × unit.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt) * p.BackoffUnit
}

// SleepContext waits with context cancellation support
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Retry runs fn until it succeeds, fails with a non rate-limit error, or the
// attempts run out. Every rate-limited attempt, the last included, is followed
// by its backoff wait. Exhaustion returns a retries-exhausted error wrapping
// the last rejection.
func Retry[T any](ctx context.Context, p RetryPolicy, logger *observability.Logger, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	if logger == nil {
		logger = observability.Nop()
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !domain.IsRateLimited(err) {
			return zero, err
		}
		lastErr = err

		backoff := p.Backoff(attempt)
		logger.WithContext(ctx).Warn().
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("backoff", backoff).
			Err(err).
			Msg("Rate limited, backing off")

		if err := sleep(ctx, backoff); err != nil {
			return zero, err
		}
	}

	return zero, domain.RetriesExhaustedError(fmt.Sprintf("gave up after %d rate-limited attempts", maxAttempts), lastErr)
}
