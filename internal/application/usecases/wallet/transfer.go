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

// TransferHandler implements the transfer command: two
// wallets updated in one transaction, locked in ascending id order to avoid
// deadlocks, producing a TRANSFER_OUT row on the source and a TRANSFER_IN
// row on the destination, linked by the shared reference id. Idempotency
// applies to the source wallet's (wallet_id, reference_id) pair.
type TransferHandler struct {
	deps WriteDeps
}

func NewTransferHandler(deps WriteDeps) *TransferHandler {
	return &TransferHandler{deps: deps}
}

func (h *TransferHandler) Handle(ctx context.Context, cmd dtos.TransferCommand) (dtos.TransferResult, error) {
	if err := h.deps.checkReadOnly(); err != nil {
		return dtos.TransferResult{}, err
	}

	sourceID, err := uuid.Parse(cmd.SourceWalletID)
	if err != nil {
		return dtos.TransferResult{}, domainerrors.NewValidationError("source_wallet_id", "must be a valid UUID")
	}
	destID, err := uuid.Parse(cmd.DestinationWalletID)
	if err != nil {
		return dtos.TransferResult{}, domainerrors.NewValidationError("destination_wallet_id", "must be a valid UUID")
	}
	if sourceID == destID {
		return dtos.TransferResult{}, domainerrors.NewInvalidTransferError("source and destination wallets must differ")
	}
	if cmd.ReferenceID == "" {
		return dtos.TransferResult{}, domainerrors.NewValidationError("reference_id", "must not be empty")
	}

	result, err := executeWithResult(ctx, h.deps, func(txCtx context.Context) (dtos.TransferResult, error) {
		existing, err := h.deps.TxRepo.FindByReference(txCtx, sourceID, cmd.ReferenceID)
		if err != nil && !domainerrors.IsNotFound(err) {
			return dtos.TransferResult{}, err
		}
		if existing != nil {
			return h.replayIdempotent(txCtx, sourceID, destID, existing)
		}

		firstID, secondID := sourceID, destID
		if secondID.String() < firstID.String() {
			firstID, secondID = secondID, firstID
		}
		first, err := h.deps.WalletRepo.FindByID(txCtx, firstID)
		if err != nil {
			return dtos.TransferResult{}, err
		}
		second, err := h.deps.WalletRepo.FindByID(txCtx, secondID)
		if err != nil {
			return dtos.TransferResult{}, err
		}
		source, destination := first, second
		if first.ID() != sourceID {
			source, destination = second, first
		}

		if source.Currency() != destination.Currency() {
			return dtos.TransferResult{}, domainerrors.NewInvalidTransferError("source and destination wallets must share a currency")
		}

		amount, err := money.New(cmd.Amount, source.Currency())
		if err != nil || !amount.IsPositive() {
			return dtos.TransferResult{}, domainerrors.NewValidationError("amount", "must be a positive decimal")
		}

		if err := source.Debit(amount); err != nil {
			return dtos.TransferResult{}, err
		}
		if err := destination.Credit(amount); err != nil {
			return dtos.TransferResult{}, err
		}

		if err := h.deps.WalletRepo.Save(txCtx, first); err != nil {
			return dtos.TransferResult{}, err
		}
		if err := h.deps.WalletRepo.Save(txCtx, second); err != nil {
			return dtos.TransferResult{}, err
		}

		outTx := entities.NewCompletedTransaction(source.ID(), entities.TransactionTypeTransferOut, amount, cmd.ReferenceID, ptrUUID(destination.ID()))
		if err := h.deps.TxRepo.Save(txCtx, outTx); err != nil {
			if domainerrors.IsDuplicateReference(err) {
				winner, findErr := h.deps.TxRepo.FindByReference(txCtx, sourceID, cmd.ReferenceID)
				if findErr != nil {
					return dtos.TransferResult{}, findErr
				}
				return h.replayIdempotent(txCtx, sourceID, destID, winner)
			}
			return dtos.TransferResult{}, err
		}

		inTx := entities.NewCompletedTransaction(destination.ID(), entities.TransactionTypeTransferIn, amount, cmd.ReferenceID, ptrUUID(source.ID()))
		if err := h.deps.TxRepo.Save(txCtx, inTx); err != nil {
			return dtos.TransferResult{}, err
		}

		event := events.NewFundsTransferred(source.ID(), destination.ID(), outTx.ID(), inTx.ID(), amount.String(), amount.Currency(), cmd.ReferenceID)
		if err := h.deps.Outbox.Store(txCtx, event); err != nil {
			return dtos.TransferResult{}, err
		}

		now := time.Now().UTC()
		return dtos.TransferResult{
			SourceWallet:      dtos.ToWalletDTO(source, now, false),
			DestinationWallet: dtos.ToWalletDTO(destination, now, false),
			SourceTransaction: outTx.ID().String(),
			DestTransaction:   inTx.ID().String(),
			Idempotent:        false,
		}, nil
	})
	if err != nil {
		return dtos.TransferResult{}, err
	}

	h.deps.invalidateCache(ctx, cacheKeyFor(cmd.SourceWalletID))
	h.deps.invalidateCache(ctx, cacheKeyFor(cmd.DestinationWalletID))
	return result, nil
}

// replayIdempotent reloads both wallets' current state and returns the
// already-recorded transfer: a duplicate reference_id
// returns the previous result with no further state change.
func (h *TransferHandler) replayIdempotent(ctx context.Context, sourceID, destID uuid.UUID, outTx *entities.Transaction) (dtos.TransferResult, error) {
	source, err := h.deps.WalletRepo.FindByID(ctx, sourceID)
	if err != nil {
		return dtos.TransferResult{}, err
	}
	destination, err := h.deps.WalletRepo.FindByID(ctx, destID)
	if err != nil {
		return dtos.TransferResult{}, err
	}
	inTx, err := h.deps.TxRepo.FindByReference(ctx, destID, outTx.ReferenceID())
	if err != nil {
		return dtos.TransferResult{}, err
	}

	now := time.Now().UTC()
	return dtos.TransferResult{
		SourceWallet:      dtos.ToWalletDTO(source, now, false),
		DestinationWallet: dtos.ToWalletDTO(destination, now, false),
		SourceTransaction: outTx.ID().String(),
		DestTransaction:   inTx.ID().String(),
		Idempotent:        true,
	}, nil
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
