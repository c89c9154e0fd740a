package agent

import (
	"time"

	"github.com/sethvargo/go-retry"
)

// Default retry settings for model calls.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// RetryPolicy describes how agent attempts are retried: a maximum attempt
// count and a linear backoff where attempt n waits BaseDelay * n before the
// next try.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy returns the policy used when none is configured.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
	}
}

// Backoff builds the retry backoff for one agent run. Each run gets a fresh
// backoff since the attempt counter is stateful.
func (p RetryPolicy) Backoff() retry.Backoff {
	maxRetries := p.MaxAttempts - 1
	if maxRetries < 0 {
		maxRetries = 0
	}

	attempt := 0
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return p.BaseDelay * time.Duration(attempt), false
	})

	return retry.WithMaxRetries(uint64(maxRetries), linear)
}
