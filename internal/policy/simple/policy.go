// Package simple contains a fixed-delay retry policy.
package simple

import (
	"time"

	"github.com/openscripture/zefbible/internal/bible"
)

// Policy retries transient failures after a constant delay. It suits hosts
// whose rate limiting punishes bursts more than sustained pacing.
type Policy struct {
	maxAttempts int
	delay       time.Duration
}

// New creates a new Policy. Zero or negative values fall back to defaults.
func New(maxAttempts int, delay time.Duration) *Policy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	return &Policy{
		maxAttempts: maxAttempts,
		delay:       delay,
	}
}

// ShouldRetry allows another attempt for retryable errors within the
// attempt budget.
func (p *Policy) ShouldRetry(err error, attempts int) bool {
	if attempts >= p.maxAttempts {
		return false
	}
	return bible.IsRetryable(err)
}

// Backoff returns the constant delay regardless of attempt count.
func (p *Policy) Backoff(int) time.Duration {
	return p.delay
}
