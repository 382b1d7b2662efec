package ports

import (
	"context"
	"time"
)

// CachePort is the cache-aside read path wallet queries consult first. A
// wallet snapshot is stored as opaque bytes (JSON-encoded by the caller)
// under a TTL; the resilience layer wraps this port in a circuit breaker
// and falls back to the repository when it's tripped.
type CachePort interface {
	// Get returns the cached bytes and true if present, or nil, false on a
	// cache miss. A non-nil error means the cache itself is unreachable —
	// callers must treat that as a miss-with-fallback, not a hard failure.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key with the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes key, called immediately after any write that
	// changes the wallet the key represents.
	Invalidate(ctx context.Context, key string) error

	// Ping reports whether the cache is reachable, for health probes and
	// the degradation manager's cache_bypass_mode signal.
	Ping(ctx context.Context) error
}
