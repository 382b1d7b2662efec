// Package ports defines the interfaces the application layer depends on;
// infrastructure adapters implement them. Application code never imports
// pgx, go-redis, or nats.go directly — only these abstractions.
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/domain/entities"
)

// WalletRepository persists and retrieves the Wallet aggregate, for both
// writes and the reads that fall through the cache-aside path on a miss.
type WalletRepository interface {
	// Save upserts a wallet. Updates are optimistic-locked on Version();
	// a stale version returns *domainerrors.OptimisticLockError.
	Save(ctx context.Context, wallet *entities.Wallet) error

	// FindByID loads a wallet by id. Returns domainerrors.ErrWalletNotFound
	// if it doesn't exist.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error)

	// List returns wallets matching filter, for the admin read-side.
	List(ctx context.Context, filter WalletFilter, offset, limit int) ([]*entities.Wallet, error)
}

// WalletFilter narrows a WalletRepository.List call.
type WalletFilter struct {
	UserID   *string
	Currency *string
	Status   *entities.WalletStatus
}

// TransactionRepository persists and retrieves Transaction rows.
type TransactionRepository interface {
	// Save inserts a transaction row. Violating the unique
	// (wallet_id, reference_id) constraint surfaces as
	// *domainerrors.DuplicateReferenceError.
	Save(ctx context.Context, tx *entities.Transaction) error

	// FindByID loads a transaction by id.
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error)

	// FindByReference looks up an existing transaction for a
	// (walletID, referenceID) pair — the idempotency pre-check every
	// write handler runs first.
	FindByReference(ctx context.Context, walletID uuid.UUID, referenceID string) (*entities.Transaction, error)

	// ListForWallet returns a wallet's COMPLETED transactions ordered by
	// (created_at, id) up to and including asOf, so the historical-balance
	// query can fold them into a point-in-time balance. A nil asOf means
	// "no upper bound".
	ListForWallet(ctx context.Context, walletID uuid.UUID, asOf *time.Time) ([]*entities.Transaction, error)

	// List returns transactions matching filter, for the admin read-side.
	List(ctx context.Context, filter TransactionFilter, offset, limit int) ([]*entities.Transaction, error)
}

// TransactionFilter narrows a TransactionRepository.List call.
type TransactionFilter struct {
	WalletID *uuid.UUID
	Type     *entities.TransactionType
	Status   *entities.TransactionStatus
}

// OutboxRepository persists outbox rows in the same transaction as the
// domain write that produced them, and lets the publisher lease a batch of
// unpublished rows for delivery.
type OutboxRepository interface {
	// Save inserts a pending outbox row. Always called within the same
	// UnitOfWork transaction as the domain mutation it documents.
	Save(ctx context.Context, event *entities.OutboxEvent) error

	// LeaseUnpublished locks up to limit pending/retryable rows with
	// SELECT ... FOR UPDATE SKIP LOCKED, so concurrent publisher instances
	// never double-send the same row.
	LeaseUnpublished(ctx context.Context, limit int) ([]*entities.OutboxEvent, error)

	// MarkPublished transitions a row to PUBLISHED.
	MarkPublished(ctx context.Context, id uuid.UUID) error

	// MarkFailed records a failed publish attempt, incrementing attempts.
	MarkFailed(ctx context.Context, id uuid.UUID) error

	// CountPending returns how many rows are still awaiting publication —
	// feeds the degradation manager's event_processing_degraded signal.
	CountPending(ctx context.Context) (int, error)
}
