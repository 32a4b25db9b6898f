package pipeline

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Default retry behavior: one retry after a fixed five minute delay
// (two attempts total).
const (
	DefaultMaxAttempts = 2
	DefaultRetryDelay  = 5 * time.Minute
)

// RetryPolicy decides, per stage, how failures are retried.
// The zero value is normalized to the defaults.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, not the retry count.
	MaxAttempts int

	// Delay is the fixed wait before each re-attempt.
	Delay time.Duration
}

// DefaultRetryPolicy returns the process-wide default policy.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: DefaultMaxAttempts, Delay: DefaultRetryDelay}
}

func (p RetryPolicy) normalized() RetryPolicy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.Delay <= 0 {
		p.Delay = DefaultRetryDelay
	}
	return p
}

// backOff builds the schedule consulted after each failed attempt:
// NextBackOff returns the delay before the re-attempt, or backoff.Stop
// once MaxAttempts is exhausted or ctx is done.
func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	p = p.normalized()
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(p.Delay), uint64(p.MaxAttempts-1))
	return backoff.WithContext(b, ctx)
}
