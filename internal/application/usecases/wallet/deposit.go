package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/dtos"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/events"
	"github.com/wallethub/ledger/internal/domain/money"
)

// DepositHandler implements the deposit command: credit a wallet,
// idempotent on (wallet_id, reference_id).
type DepositHandler struct {
	deps WriteDeps
}

func NewDepositHandler(deps WriteDeps) *DepositHandler {
	return &DepositHandler{deps: deps}
}

func (h *DepositHandler) Handle(ctx context.Context, cmd dtos.DepositCommand) (dtos.WalletOperationResult, error) {
	if err := h.deps.checkReadOnly(); err != nil {
		return dtos.WalletOperationResult{}, err
	}

	walletID, err := uuid.Parse(cmd.WalletID)
	if err != nil {
		return dtos.WalletOperationResult{}, domainerrors.NewValidationError("wallet_id", "must be a valid UUID")
	}
	if cmd.ReferenceID == "" {
		return dtos.WalletOperationResult{}, domainerrors.NewValidationError("reference_id", "must not be empty")
	}

	result, err := executeWithResult(ctx, h.deps, func(txCtx context.Context) (dtos.WalletOperationResult, error) {
		existing, err := h.deps.TxRepo.FindByReference(txCtx, walletID, cmd.ReferenceID)
		if err != nil && !domainerrors.IsNotFound(err) {
			return dtos.WalletOperationResult{}, err
		}
		if existing != nil {
			wallet, err := h.deps.WalletRepo.FindByID(txCtx, walletID)
			if err != nil {
				return dtos.WalletOperationResult{}, err
			}
			return dtos.WalletOperationResult{
				Wallet:        dtos.ToWalletDTO(wallet, time.Now().UTC(), false),
				TransactionID: existing.ID().String(),
				Idempotent:    true,
			}, nil
		}

		wallet, err := h.deps.WalletRepo.FindByID(txCtx, walletID)
		if err != nil {
			return dtos.WalletOperationResult{}, err
		}

		amount, err := money.New(cmd.Amount, wallet.Currency())
		if err != nil || !amount.IsPositive() {
			return dtos.WalletOperationResult{}, domainerrors.NewValidationError("amount", "must be a positive decimal")
		}

		if err := wallet.Credit(amount); err != nil {
			return dtos.WalletOperationResult{}, err
		}

		if err := h.deps.WalletRepo.Save(txCtx, wallet); err != nil {
			return dtos.WalletOperationResult{}, err
		}

		tx := entities.NewCompletedTransaction(wallet.ID(), entities.TransactionTypeDeposit, amount, cmd.ReferenceID, nil)
		if err := h.deps.TxRepo.Save(txCtx, tx); err != nil {
			if domainerrors.IsDuplicateReference(err) {
				// Lost the race to a concurrent identical retry; re-read the
				// row the other writer committed and return it idempotently.
				winner, findErr := h.deps.TxRepo.FindByReference(txCtx, walletID, cmd.ReferenceID)
				if findErr != nil {
					return dtos.WalletOperationResult{}, findErr
				}
				reloaded, findErr := h.deps.WalletRepo.FindByID(txCtx, walletID)
				if findErr != nil {
					return dtos.WalletOperationResult{}, findErr
				}
				return dtos.WalletOperationResult{
					Wallet:        dtos.ToWalletDTO(reloaded, time.Now().UTC(), false),
					TransactionID: winner.ID().String(),
					Idempotent:    true,
				}, nil
			}
			return dtos.WalletOperationResult{}, err
		}

		event := events.NewFundsDeposited(wallet.ID(), tx.ID(), amount.String(), amount.Currency(), cmd.ReferenceID)
		if err := h.deps.Outbox.Store(txCtx, event); err != nil {
			return dtos.WalletOperationResult{}, err
		}

		return dtos.WalletOperationResult{
			Wallet:        dtos.ToWalletDTO(wallet, time.Now().UTC(), false),
			TransactionID: tx.ID().String(),
			Idempotent:    false,
		}, nil
	})
	if err != nil {
		return dtos.WalletOperationResult{}, err
	}

	h.deps.invalidateCache(ctx, cacheKeyFor(cmd.WalletID))
	return result, nil
}
