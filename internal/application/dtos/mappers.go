package dtos

import (
	"time"

	"github.com/wallethub/ledger/internal/domain/entities"
)

// ToWalletDTO converts a Wallet aggregate to its API representation. asOf
// and stale let the caller stamp the cache-aside staleness bound onto an
// otherwise-identical snapshot.
func ToWalletDTO(wallet *entities.Wallet, asOf time.Time, stale bool) WalletDTO {
	return WalletDTO{
		ID:        wallet.ID().String(),
		UserID:    wallet.UserID(),
		Currency:  wallet.Currency(),
		Balance:   wallet.Balance().String(),
		Status:    string(wallet.Status()),
		Version:   wallet.Version(),
		CreatedAt: wallet.CreatedAt(),
		UpdatedAt: wallet.UpdatedAt(),
		AsOf:      asOf,
		Stale:     stale,
	}
}

// ToWalletDTOList converts a slice of wallets, all stamped as freshly read
// (never served from cache — used by the admin listing, which always reads
// the replica).
func ToWalletDTOList(wallets []*entities.Wallet) []WalletDTO {
	now := time.Now().UTC()
	result := make([]WalletDTO, len(wallets))
	for i, w := range wallets {
		result[i] = ToWalletDTO(w, now, false)
	}
	return result
}
