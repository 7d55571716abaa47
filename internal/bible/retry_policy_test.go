package bible

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestExponentialRetryPolicy_ShouldRetry(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, 10*time.Millisecond, 100*time.Millisecond)

	transient := &TransientFetchError{URL: "https://example.com", Err: errors.New("connection reset")}

	require.False(t, policy.ShouldRetry(nil, 1))
	require.True(t, policy.ShouldRetry(transient, 1))
	require.True(t, policy.ShouldRetry(transient, 2))
	require.False(t, policy.ShouldRetry(transient, 3), "attempts at the bound must not retry")
	require.False(t, policy.ShouldRetry(context.Canceled, 1))
	require.False(t, policy.ShouldRetry(&MalformedResponseError{URL: "u", Reason: "bad json"}, 1))
	require.False(t, policy.ShouldRetry(errors.New("opaque"), 1))
}

func TestExponentialRetryPolicy_ShouldRetry_WrappedCancellation(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(3, 10*time.Millisecond, 100*time.Millisecond)

	// A transient wrapper around cancellation is still not retryable.
	err := &TransientFetchError{URL: "u", Err: context.Canceled}
	require.False(t, policy.ShouldRetry(err, 1))
}

func TestExponentialRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	base := 100 * time.Millisecond
	max := 400 * time.Millisecond
	policy := NewExponentialRetryPolicy(5, base, max)

	for attempts := 1; attempts <= 6; attempts++ {
		d := policy.Backoff(attempts)
		require.Positive(t, d)
		require.LessOrEqual(t, d, max, "backoff must be capped at the max delay")
	}
}

func TestNewExponentialRetryPolicy_Defaults(t *testing.T) {
	t.Parallel()

	policy := NewExponentialRetryPolicy(0, 0, 0)
	transient := &TransientFetchError{URL: "u", Err: errors.New("timeout")}

	require.True(t, policy.ShouldRetry(transient, 2))
	require.False(t, policy.ShouldRetry(transient, 3))
}
