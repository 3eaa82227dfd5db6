package lex

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// DefaultMaxAttempts bounds every delete loop
	DefaultMaxAttempts = 5
	// DefaultRetryDelay is the fixed pause between delete attempts
	DefaultRetryDelay = 5 * time.Second
)

// RetryPolicy is a fixed count, fixed delay retry policy. Timer may be set to
// drive the delay without real sleeping.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Timer       backoff.Timer
}

// DefaultRetryPolicy returns the policy used for deletes: 5 attempts, 5s apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		Delay:       DefaultRetryDelay,
	}
}

// Do runs op until it succeeds, returns a permanent error, the attempts are
// exhausted or ctx is done. notify is called before every pause.
func (p RetryPolicy) Do(ctx context.Context, op func() error, notify func(err error, next time.Duration)) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(p.Delay)
	b = backoff.WithMaxRetries(b, uint64(attempts-1))
	b = backoff.WithContext(b, ctx)

	return backoff.RetryNotifyWithTimer(op, b, notify, p.Timer)
}

// Permanent marks err as not worth retrying
func Permanent(err error) error {
	return backoff.Permanent(err)
}
