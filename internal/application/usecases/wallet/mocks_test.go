package wallet

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
)

// fakeUoW runs fn directly against the background context: the in-memory
// repos below have no real transaction to begin, so there's nothing to
// commit or roll back beyond propagating fn's error.
type fakeUoW struct{}

func (fakeUoW) Execute(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type fakeWalletRepo struct {
	wallets map[uuid.UUID]*entities.Wallet
}

func newFakeWalletRepo(wallets ...*entities.Wallet) *fakeWalletRepo {
	r := &fakeWalletRepo{wallets: make(map[uuid.UUID]*entities.Wallet)}
	for _, w := range wallets {
		r.wallets[w.ID()] = w
	}
	return r
}

func (r *fakeWalletRepo) Save(ctx context.Context, wallet *entities.Wallet) error {
	r.wallets[wallet.ID()] = wallet
	return nil
}

func (r *fakeWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	w, ok := r.wallets[id]
	if !ok {
		return nil, domainerrors.ErrWalletNotFound
	}
	return w, nil
}

func (r *fakeWalletRepo) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, error) {
	var out []*entities.Wallet
	for _, w := range r.wallets {
		out = append(out, w)
	}
	return out, nil
}

type fakeTransactionRepo struct {
	byID        map[uuid.UUID]*entities.Transaction
	byReference map[string]*entities.Transaction
}

func newFakeTransactionRepo() *fakeTransactionRepo {
	return &fakeTransactionRepo{
		byID:        make(map[uuid.UUID]*entities.Transaction),
		byReference: make(map[string]*entities.Transaction),
	}
}

func refKey(walletID uuid.UUID, referenceID string) string {
	return walletID.String() + "|" + referenceID
}

func (r *fakeTransactionRepo) Save(ctx context.Context, tx *entities.Transaction) error {
	key := refKey(tx.WalletID(), tx.ReferenceID())
	if _, exists := r.byReference[key]; exists {
		return domainerrors.NewDuplicateReferenceError(tx.WalletID().String(), tx.ReferenceID())
	}
	r.byID[tx.ID()] = tx
	r.byReference[key] = tx
	return nil
}

func (r *fakeTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	tx, ok := r.byID[id]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (r *fakeTransactionRepo) FindByReference(ctx context.Context, walletID uuid.UUID, referenceID string) (*entities.Transaction, error) {
	tx, ok := r.byReference[refKey(walletID, referenceID)]
	if !ok {
		return nil, domainerrors.ErrTransactionNotFound
	}
	return tx, nil
}

func (r *fakeTransactionRepo) ListForWallet(ctx context.Context, walletID uuid.UUID, asOf *time.Time) ([]*entities.Transaction, error) {
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
		for j := i; j > 0 && out[j].CreatedAt().Before(out[j-1].CreatedAt()); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

func (r *fakeTransactionRepo) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	return nil, nil
}

type fakeOutboxRepo struct {
	saved []*entities.OutboxEvent
}

func (r *fakeOutboxRepo) Save(ctx context.Context, event *entities.OutboxEvent) error {
	r.saved = append(r.saved, event)
	return nil
}

func (r *fakeOutboxRepo) LeaseUnpublished(ctx context.Context, limit int) ([]*entities.OutboxEvent, error) {
	return nil, nil
}

func (r *fakeOutboxRepo) MarkPublished(ctx context.Context, id uuid.UUID) error { return nil }
func (r *fakeOutboxRepo) MarkFailed(ctx context.Context, id uuid.UUID) error    { return nil }
func (r *fakeOutboxRepo) CountPending(ctx context.Context) (int, error)        { return 0, nil }

type fakeCache struct {
	store map[string][]byte
}

func newFakeCache() *fakeCache { return &fakeCache{store: make(map[string][]byte)} }

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := c.store[key]
	return v, ok, nil
}

func (c *fakeCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.store[key] = value
	return nil
}

func (c *fakeCache) Invalidate(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func (c *fakeCache) Ping(ctx context.Context) error { return nil }
