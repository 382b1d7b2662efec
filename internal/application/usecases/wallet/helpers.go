package wallet

import (
	"fmt"

	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// cacheKeyFor is the single place a wallet id becomes a cache key, so the
// read and write paths never drift apart.
func cacheKeyFor(walletID string) string {
	return fmt.Sprintf("wallet:%s", walletID)
}

func degradedReadOnlyError() error {
	return domainerrors.NewServiceDegradedError("READ_ONLY_MODE", "writes are currently rejected; the primary database is unreachable or degraded")
}
