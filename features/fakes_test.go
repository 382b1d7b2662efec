package features

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// memWalletRepo is an in-memory ports.WalletRepository, standing in for the
// postgres implementation so these scenarios run without a database.
type memWalletRepo struct {
	wallets map[uuid.UUID]*entities.Wallet
}

func newMemWalletRepo() *memWalletRepo {
	return &memWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
}

func (r *memWalletRepo) Save(ctx context.Context, wallet *entities.Wallet) error {
	r.wallets[wallet.ID()] = wallet
	return nil
}

func (r *memWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	w, ok := r.wallets[id]
	if !ok {
		return nil, domainerrors.ErrWalletNotFound
	}
	return w, nil
}

func (r *memWalletRepo) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, error) {
	var out []*entities.Wallet
	for _, w := range r.wallets {
		out = append(out, w)
	}
	return out, nil
}

// memTransactionRepo is an in-memory ports.TransactionRepository. Rows keep
// an insertion sequence alongside CreatedAt so ListForWallet sorts
// deterministically even when two rows land on the same wall-clock tick.
type memTransactionRepo struct {
	byID        map[uuid.UUID]*entities.Transaction
	byReference map[string]*entities.Transaction
	sequence    map[uuid.UUID]int
	next        int
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{
		byID:        make(map[uuid.UUID]*entities.Transaction),
		byReference: make(map[string]*entities.Transaction),
		sequence:    make(map[uuid.UUID]int),
	}
}

func refKey(walletID uuid.UUID, referenceID string) string {
	return walletID.String() + "|" + referenceID
}

func (r *memTransactionRepo) Save(ctx context.Context, tx *entities.Transaction) error {
	key := refKey(tx.WalletID(), tx.ReferenceID())
	if _, exists := r.byReference[key]; exists {
		return domainerrors.NewDuplicateReferenceError(tx.WalletID().String(), tx.ReferenceID())
	}
	r.byID[tx.ID()] = tx
	r.byReference[key] = tx
	r.sequence[tx.ID()] = r.next
	r.next++
	return nil
}

func (r *memTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	tx, ok := r.byID[id]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (r *memTransactionRepo) FindByReference(ctx context.Context, walletID uuid.UUID, referenceID string) (*entities.Transaction, error) {
	tx, ok := r.byReference[refKey(walletID, referenceID)]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (r *memTransactionRepo) ListForWallet(ctx context.Context, walletID uuid.UUID, asOf *time.Time) ([]*entities.Transaction, error) {
	var out []*entities.Transaction
	for _, tx := range r.byID {
		if tx.WalletID() != walletID || tx.Status() != entities.TransactionStatusCompleted {
			continue
		}
		if asOf != nil && tx.CreatedAt().After(*asOf) {
			continue
		}
		out = append(out, tx)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && r.before(out[j], out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (r *memTransactionRepo) before(a, b *entities.Transaction) bool {
	if !a.CreatedAt().Equal(b.CreatedAt()) {
		return a.CreatedAt().Before(b.CreatedAt())
	}
	return r.sequence[a.ID()] < r.sequence[b.ID()]
}

func (r *memTransactionRepo) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	return nil, nil
}

// memOutboxRepo is an in-memory ports.OutboxRepository; the publisher side
// is irrelevant to these scenarios, only the write-side row count is.
type memOutboxRepo struct {
	saved []*entities.OutboxEvent
}

func (r *memOutboxRepo) Save(ctx context.Context, event *entities.OutboxEvent) error {
	r.saved = append(r.saved, event)
	return nil
}

func (r *memOutboxRepo) LeaseUnpublished(ctx context.Context, limit int) ([]*entities.OutboxEvent, error) {
	return nil, nil
}

func (r *memOutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error { return nil }
func (r *memOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID) error    { return nil }
func (r *memOutboxRepo) CountPending(ctx context.Context) (int, error)        { return 0, nil }

// memUnitOfWork runs fn directly against ctx when healthy. Once failing is
// set, it reports the primary as unreachable on every call, the way a
// connection-pool exhaustion or a downed replica-set leader would.
type memUnitOfWork struct {
	failing bool
}

func (u *memUnitOfWork) Execute(ctx context.Context, fn func(context.Context) error) error {
	if u.failing {
		return domainerrors.NewTransientError("begin transaction", errors.New("connection refused: primary unreachable"))
	}
	return fn(ctx)
}
