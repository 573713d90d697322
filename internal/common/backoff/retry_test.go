package backoff

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPolicy() RetryPolicy {
	policy := NewExponentialRetryPolicy(time.Millisecond)
	policy.SetMaximumInterval(5 * time.Millisecond)
	policy.SetExpirationInterval(50 * time.Millisecond)
	return policy
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}

	err := Retry(context.Background(), op, testPolicy(), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryStopsOnNonRetryable(t *testing.T) {
	terminal := errors.New("terminal")
	attempts := 0
	op := func() error {
		attempts++
		return terminal
	}

	err := Retry(context.Background(), op, testPolicy(), func(err error) bool { return false })
	assert.ErrorIs(t, err, terminal)
	assert.Equal(t, 1, attempts)
}

func TestRetryHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0
	op := func() error {
		attempts++
		if attempts == 1 {
			cancel()
		}
		return errors.New("always failing")
	}

	policy := NewExponentialRetryPolicy(10 * time.Millisecond)
	policy.SetExpirationInterval(time.Minute)
	err := Retry(ctx, op, policy, nil)
	require.Error(t, err)
	assert.LessOrEqual(t, attempts, 2)
}

func TestExponentialPolicyStopsAfterMaxAttempts(t *testing.T) {
	policy := NewExponentialRetryPolicy(time.Millisecond)
	policy.SetMaximumAttempts(2)

	assert.NotEqual(t, done, policy.ComputeNextDelay(0, 0))
	assert.NotEqual(t, done, policy.ComputeNextDelay(0, 1))
	assert.Equal(t, done, policy.ComputeNextDelay(0, 2))
}

func TestExponentialPolicyStopsAfterExpiration(t *testing.T) {
	policy := NewExponentialRetryPolicy(time.Millisecond)
	policy.SetExpirationInterval(10 * time.Millisecond)

	assert.Equal(t, done, policy.ComputeNextDelay(11*time.Millisecond, 1))
}

func TestRetrierBacksOffThroughClock(t *testing.T) {
	policy := NewExponentialRetryPolicy(10 * time.Millisecond)
	policy.SetBackoffCoefficient(2)
	policy.SetMaximumInterval(time.Second)
	policy.SetExpirationInterval(NoInterval)

	r := NewRetrier(policy, SystemClock)
	first := r.NextBackOff()
	second := r.NextBackOff()
	require.NotEqual(t, done, first)
	require.NotEqual(t, done, second)
	// Jitter keeps exact values fuzzy, but the second interval must grow.
	assert.Greater(t, second, first)
}
