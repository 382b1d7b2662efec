package wallet

import (
	"context"
	"time"

	"github.com/wallethub/ledger/internal/application/dtos"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/events"
)

// CreateWalletHandler applies the create-wallet rules: a new
// identifier, zero balance, ACTIVE status, version 1, no idempotency key —
// a user may hold more than one wallet.
type CreateWalletHandler struct {
	deps WriteDeps
}

func NewCreateWalletHandler(deps WriteDeps) *CreateWalletHandler {
	return &CreateWalletHandler{deps: deps}
}

func (h *CreateWalletHandler) Handle(ctx context.Context, cmd dtos.CreateWalletCommand) (dtos.WalletDTO, error) {
	if err := h.deps.checkReadOnly(); err != nil {
		return dtos.WalletDTO{}, err
	}

	result, err := executeWithResult(ctx, h.deps, func(txCtx context.Context) (dtos.WalletDTO, error) {
		wallet, err := entities.NewWallet(cmd.UserID, cmd.Currency)
		if err != nil {
			return dtos.WalletDTO{}, err
		}

		if err := h.deps.WalletRepo.Save(txCtx, wallet); err != nil {
			return dtos.WalletDTO{}, err
		}

		event := events.NewWalletCreated(wallet.ID(), wallet.UserID(), wallet.Currency())
		if err := h.deps.Outbox.Store(txCtx, event); err != nil {
			return dtos.WalletDTO{}, err
		}

		return dtos.ToWalletDTO(wallet, time.Now().UTC(), false), nil
	})
	if err != nil {
		return dtos.WalletDTO{}, err
	}

	return result, nil
}
