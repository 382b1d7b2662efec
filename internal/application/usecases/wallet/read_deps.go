package wallet

import (
	"log/slog"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/resilience/breaker"
	"github.com/wallethub/ledger/internal/resilience/degradation"
)

// ReadDeps bundles what every query handler needs.
type ReadDeps struct {
	WalletRepo   ports.WalletRepository
	TxRepo       ports.TransactionRepository
	Cache        ports.CachePort
	CacheBreaker *breaker.Breaker
	Degrader     *degradation.Manager
	Logger       *slog.Logger
}

// cacheBypassed reports whether the cache-aside path should be skipped
// outright: no cache is configured, or degradation.CacheBypassMode is
// active because the cache circuit breaker has tripped.
func (d ReadDeps) cacheBypassed() bool {
	return d.Cache == nil || (d.Degrader != nil && d.Degrader.IsActive(degradation.CacheBypassMode))
}
