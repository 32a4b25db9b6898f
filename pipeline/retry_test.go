package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyDefaults(t *testing.T) {
	p := RetryPolicy{}.normalized()
	assert.Equal(t, DefaultMaxAttempts, p.MaxAttempts)
	assert.Equal(t, DefaultRetryDelay, p.Delay)

	p = RetryPolicy{MaxAttempts: 5, Delay: time.Second}.normalized()
	assert.Equal(t, 5, p.MaxAttempts)
	assert.Equal(t, time.Second, p.Delay)
}

func TestRetryPolicySchedule(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Millisecond}
	schedule := policy.backOff(context.Background())

	// Two retries after the first attempt, then give up
	assert.Equal(t, 10*time.Millisecond, schedule.NextBackOff())
	assert.Equal(t, 10*time.Millisecond, schedule.NextBackOff())
	assert.Equal(t, backoff.Stop, schedule.NextBackOff())
}

func TestRetryPolicySingleAttempt(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 1, Delay: 10 * time.Millisecond}
	schedule := policy.backOff(context.Background())
	assert.Equal(t, backoff.Stop, schedule.NextBackOff())
}

func TestRetryPolicyCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 3, Delay: 10 * time.Millisecond}
	schedule := policy.backOff(ctx)
	assert.Equal(t, backoff.Stop, schedule.NextBackOff())
}

func TestRetryableErr(t *testing.T) {
	base := errors.New("index write interrupted")

	require.False(t, IsRetryable(base))
	marked := RetryableErr(base)
	assert.True(t, IsRetryable(marked))
	assert.Equal(t, base.Error(), marked.Error())
	assert.ErrorIs(t, marked, base)

	// Marking survives further wrapping
	wrapped := fmt.Errorf("stage failed: %w", marked)
	assert.True(t, IsRetryable(wrapped))
}
