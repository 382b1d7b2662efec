// Package retry wraps cenkalti/backoff/v4 into two named policies: one
// tuned for optimistic-lock contention (short, because contention resolves
// within a handful of attempts or not at all) and one for transient I/O
// (longer, because a blip in the database or a downstream dependency can
// take real wall-clock time to clear).
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// Policy runs an operation, retrying it according to a backoff schedule
// while the error it returns is retryable and the backoff budget is not spent.
type Policy struct {
	name           string
	newBackOff     func() backoff.BackOff
	isRetryable    func(error) bool
	onRetry        func(attempt int, err error)
	onExhausted    func(err error)
}

// Option customizes a Policy at construction time.
type Option func(*Policy)

// WithOnRetry sets a callback invoked before each retry attempt (metrics).
func WithOnRetry(fn func(attempt int, err error)) Option {
	return func(p *Policy) { p.onRetry = fn }
}

// WithOnExhausted sets a callback invoked once the policy gives up.
func WithOnExhausted(fn func(err error)) Option {
	return func(p *Policy) { p.onExhausted = fn }
}

// OptimisticLockPolicy retries only domainerrors.OptimisticLockError, with a
// short max elapsed time — 300ms in all, with intervals growing from 5ms
// to a 50ms cap.
func OptimisticLockPolicy(opts ...Option) *Policy {
	p := &Policy{
		name: "optimistic_lock",
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 5 * time.Millisecond
			b.MaxInterval = 50 * time.Millisecond
			b.MaxElapsedTime = 300 * time.Millisecond
			b.Multiplier = 2
			return b
		},
		isRetryable: domainerrors.IsOptimisticLock,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// TransientPolicy retries domainerrors.TransientError, with a larger
// initial interval and a longer elapsed-time budget since the failure mode
// it targets (connection resets, deadlocks, a momentarily unreachable
// dependency) clears on a slower timescale than lock contention.
func TransientPolicy(opts ...Option) *Policy {
	p := &Policy{
		name: "transient",
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 50 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			b.Multiplier = 2
			return b
		},
		isRetryable: domainerrors.IsTransient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Do runs fn, retrying per the policy's schedule while fn's error is
// retryable. Non-retryable errors (validation, not-found, insufficient
// funds, invalid transfer, wallet-status violations) return immediately on
// the first attempt — retrying them would just reproduce the rejection.
func (p *Policy) Do(ctx context.Context, fn func() error) error {
	b := backoff.WithContext(p.newBackOff(), ctx)
	attempt := 0
	var lastErr error

	operation := func() error {
		attempt++
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !p.isRetryable(err) {
			return backoff.Permanent(err)
		}
		if p.onRetry != nil {
			p.onRetry(attempt, err)
		}
		return err
	}

	err := backoff.Retry(operation, b)
	if err != nil && p.isRetryable(lastErr) && p.onExhausted != nil {
		p.onExhausted(lastErr)
	}
	return err
}

// Name returns the policy's identifier, used in metric labels.
func (p *Policy) Name() string { return p.name }
