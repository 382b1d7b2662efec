// Package wallet implements the command and query handlers: one handler
// type per bus operation, each a thin orchestration layer over the domain
// entities, the repository ports, and the outbox.
package wallet

import (
	"context"
	"log/slog"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/outbox"
	"github.com/wallethub/ledger/internal/resilience/breaker"
	"github.com/wallethub/ledger/internal/resilience/degradation"
	"github.com/wallethub/ledger/internal/resilience/retry"
)

// WriteDeps bundles what every command handler needs. Handlers hold this by
// value so construction stays a one-line struct literal in the container.
type WriteDeps struct {
	UoW          ports.UnitOfWork
	WalletRepo   ports.WalletRepository
	TxRepo       ports.TransactionRepository
	Outbox       *outbox.Service
	Cache        ports.CachePort
	CacheBreaker *breaker.Breaker
	// DBBreaker guards the write path's unit-of-work execution. Repeated
	// transient failures trip it, and the container's OnStateChange callback
	// flips degradation.ReadOnlyMode so the service stops accepting writes
	// it can't durably commit instead of queuing them up behind a dead
	// primary.
	DBBreaker *breaker.Breaker
	Degrader  *degradation.Manager
	Logger    *slog.Logger
}

// checkReadOnly fails fast when the degradation manager has write traffic
// shut off.
func (d WriteDeps) checkReadOnly() error {
	if d.Degrader != nil && !d.Degrader.IsWritable() {
		return degradedReadOnlyError()
	}
	return nil
}

// invalidateCache runs after a successful write: best-effort,
// breaker-guarded, never fails the operation it's called after.
func (d WriteDeps) invalidateCache(ctx context.Context, key string) {
	if d.Cache == nil {
		return
	}
	invalidate := func(ctx context.Context) (any, error) {
		return nil, d.Cache.Invalidate(ctx, key)
	}
	var err error
	if d.CacheBreaker != nil {
		_, err = d.CacheBreaker.Execute(ctx, invalidate)
	} else {
		_, err = invalidate(ctx)
	}
	if err != nil && d.Logger != nil {
		d.Logger.Warn("cache invalidation failed", slog.String("key", key), slog.Any("error", err))
	}
}

// executeWithResult runs fn inside deps.UoW's transaction, retrying the
// whole attempt when it fails with an error the retry layer recognizes as
// worth retrying: an optimistic-lock conflict on a hot wallet resolves on
// a short, tight schedule, while a transient database error (deadlock,
// connection reset, serialization failure) gets a longer one. Every other
// error — validation, insufficient funds, a closed wallet, anything
// structural — returns on the first attempt untouched.
//
// The whole retry loop is additionally wrapped in deps.DBBreaker when one
// is configured, so a primary database that keeps failing trips the
// breaker rather than retrying forever against a dead connection.
func executeWithResult[T any](ctx context.Context, deps WriteDeps, fn func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		optimistic := retry.OptimisticLockPolicy(retry.WithOnRetry(func(n int, err error) {
			if deps.Logger != nil {
				deps.Logger.Warn("retrying optimistic lock conflict", slog.Int("attempt", n), slog.Any("error", err))
			}
		}))
		transient := retry.TransientPolicy(retry.WithOnRetry(func(n int, err error) {
			if deps.Logger != nil {
				deps.Logger.Warn("retrying transient write failure", slog.Int("attempt", n), slog.Any("error", err))
			}
		}))

		var result T
		err := transient.Do(ctx, func() error {
			return optimistic.Do(ctx, func() error {
				r, err := ports.ExecuteWithResult(ctx, deps.UoW, fn)
				if err != nil {
					return err
				}
				result = r
				return nil
			})
		})
		return result, err
	}

	if deps.DBBreaker == nil {
		return attempt()
	}

	raw, err := deps.DBBreaker.Execute(ctx, func(ctx context.Context) (any, error) {
		r, attemptErr := attempt()
		return r, attemptErr
	})
	result, _ := raw.(T)
	return result, err
}
