// Package retry runs an operation again when it fails in a way the caller considers
// transient, waiting exponentially longer between attempts.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy describes how hard to try.  The zero value makes a single attempt.
type Policy struct {
	// MaxAttempts bounds the total number of calls, the first one included.
	MaxAttempts int
	// InitialDelay is the wait before the second attempt.
	InitialDelay time.Duration
	// Factor multiplies the delay after every failed attempt.  Values below 1 mean a fixed
	// delay.
	Factor float64

	// Retryable decides which errors are worth another attempt.  A nil Retryable retries
	// nothing.
	Retryable func(error) bool

	// Notify, if set, is called before each wait.
	Notify func(err error, attempt int, wait time.Duration)
}

// New builds a policy retrying errors matched by retryable.
func New(retryable func(error) bool, maxAttempts int, initialDelay time.Duration, factor float64) Policy {
	return Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: initialDelay,
		Factor:       factor,
		Retryable:    retryable,
	}
}

func (p Policy) schedule(ctx context.Context) backoff.BackOff {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	factor := p.Factor
	if factor < 1 {
		factor = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.InitialDelay
	b.Multiplier = factor
	b.RandomizationFactor = 0
	b.MaxInterval = 24 * time.Hour
	b.MaxElapsedTime = 0

	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
}

// Do calls fn until it succeeds, fails with an error Retryable rejects, the attempts run out,
// or ctx is done.  The error of the last attempt is returned.
func (p Policy) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	attempt := 0
	op := func() error {
		attempt++
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable == nil || !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		if p.Notify != nil {
			p.Notify(err, attempt, wait)
		}
	}

	if err := backoff.RetryNotify(op, p.schedule(ctx), notify); err != nil {
		if attempt > 1 {
			return fmt.Errorf("retry: giving up after %d attempts: %w", attempt, err)
		}
		return err
	}

	return nil
}

// Value is Do for operations that produce something.
func Value[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	return result, err
}
