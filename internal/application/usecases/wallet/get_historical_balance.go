package wallet

import (
	"context"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/dtos"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/money"
)

// GetHistoricalBalanceHandler folds every
// COMPLETED transaction up to and including AsOf, from zero. Never touches
// the cache — this is a point-in-time reconstruction, not the current-state
// fast path.
type GetHistoricalBalanceHandler struct {
	deps ReadDeps
}

func NewGetHistoricalBalanceHandler(deps ReadDeps) *GetHistoricalBalanceHandler {
	return &GetHistoricalBalanceHandler{deps: deps}
}

func (h *GetHistoricalBalanceHandler) Handle(ctx context.Context, q dtos.GetHistoricalBalanceQuery) (dtos.HistoricalBalanceResult, error) {
	walletID, err := uuid.Parse(q.WalletID)
	if err != nil {
		return dtos.HistoricalBalanceResult{}, domainerrors.NewValidationError("wallet_id", "must be a valid UUID")
	}

	wallet, err := h.deps.WalletRepo.FindByID(ctx, walletID)
	if err != nil {
		return dtos.HistoricalBalanceResult{}, err
	}

	asOf := q.AsOf
	txs, err := h.deps.TxRepo.ListForWallet(ctx, walletID, &asOf)
	if err != nil {
		return dtos.HistoricalBalanceResult{}, err
	}

	balance := money.Zero(wallet.Currency())
	for _, tx := range txs {
		var err error
		if tx.IsCredit() {
			balance, err = balance.Add(tx.Amount())
		} else {
			balance, err = balance.Sub(tx.Amount())
		}
		if err != nil {
			return dtos.HistoricalBalanceResult{}, err
		}
	}

	return dtos.HistoricalBalanceResult{
		WalletID: wallet.ID().String(),
		Balance:  balance.String(),
		Currency: wallet.Currency(),
		AsOf:     q.AsOf,
	}, nil
}
