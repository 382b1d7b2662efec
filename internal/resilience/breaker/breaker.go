// Package breaker wraps sony/gobreaker into one named circuit breaker per
// remote dependency category (cache, event log, database). A breaker trip
// is reported to the degradation manager so it can flip the matching
// degradation flag (cache_bypass_mode, event_processing_degraded,
// read_only_mode).
package breaker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// StateChangeFunc is notified whenever a breaker's state transitions.
type StateChangeFunc func(name string, from, to gobreaker.State)

// Breaker wraps a single gobreaker.CircuitBreaker.
type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

// Config controls the underlying gobreaker instance.
type Config struct {
	Name                string
	MaxRequestsHalfOpen uint32
	Interval            time.Duration
	Timeout             time.Duration
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker from closed to open.
	FailureThreshold uint32
	OnStateChange    StateChangeFunc
}

// New builds a Breaker from cfg.
func New(cfg Config) *Breaker {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequestsHalfOpen,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	if cfg.OnStateChange != nil {
		settings.OnStateChange = func(name string, from, to gobreaker.State) {
			cfg.OnStateChange(name, from, to)
		}
	}
	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings)}
}

// Execute runs fn through the breaker. When the breaker is open, fn isn't
// called and gobreaker.ErrOpenState is returned immediately.
func (b *Breaker) Execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	return b.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
}

// State returns the breaker's current state, for health probes.
func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

// IsOpen reports whether the breaker is currently rejecting calls.
func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}
