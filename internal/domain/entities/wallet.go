// Package entities holds the domain aggregates: Wallet, Transaction, and
// OutboxEvent.
package entities

import (
	"time"

	"github.com/google/uuid"

	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/money"
)

// WalletStatus is the lifecycle state of a Wallet. Transitions are monotone:
// ACTIVE -> FROZEN -> CLOSED. Neither FROZEN nor CLOSED ever revert.
type WalletStatus string

const (
	WalletStatusActive WalletStatus = "ACTIVE"
	WalletStatusFrozen WalletStatus = "FROZEN"
	WalletStatusClosed WalletStatus = "CLOSED"
)

// Wallet is the aggregate root for a single user's balance in one currency.
type Wallet struct {
	id        uuid.UUID
	userID    string
	currency  string
	balance   money.Money
	status    WalletStatus
	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewWallet creates a brand-new wallet with a zero balance.
func NewWallet(userID, currency string) (*Wallet, error) {
	if userID == "" {
		return nil, domainerrors.NewValidationError("user_id", "must not be empty")
	}
	if len(currency) != 3 {
		return nil, domainerrors.NewValidationError("currency", "must be a 3-letter ISO 4217 code")
	}
	now := time.Now().UTC()
	return &Wallet{
		id:        uuid.New(),
		userID:    userID,
		currency:  currency,
		balance:   money.Zero(currency),
		status:    WalletStatusActive,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructWallet rebuilds a Wallet from persisted state. No invariants are
// re-derived; the repository is trusted to hand back a valid row.
func ReconstructWallet(id uuid.UUID, userID, currency string, balance money.Money, status WalletStatus, version int64, createdAt, updatedAt time.Time) *Wallet {
	return &Wallet{
		id:        id,
		userID:    userID,
		currency:  currency,
		balance:   balance,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

func (w *Wallet) ID() uuid.UUID        { return w.id }
func (w *Wallet) UserID() string       { return w.userID }
func (w *Wallet) Currency() string     { return w.currency }
func (w *Wallet) Balance() money.Money { return w.balance }
func (w *Wallet) Status() WalletStatus { return w.status }
func (w *Wallet) Version() int64       { return w.version }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
func (w *Wallet) UpdatedAt() time.Time { return w.updatedAt }

// IsActive reports whether funds may currently move through the wallet.
func (w *Wallet) IsActive() bool { return w.status == WalletStatusActive }

// Credit increases the balance by amount. amount must be positive and in the
// wallet's currency.
func (w *Wallet) Credit(amount money.Money) error {
	if err := w.assertMutable(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return domainerrors.NewValidationError("amount", "must be positive")
	}
	if !amount.SameCurrency(w.balance) {
		return domainerrors.NewInvalidTransferError("currency mismatch between wallet and amount")
	}
	newBalance, err := w.balance.Add(amount)
	if err != nil {
		return err
	}
	w.balance = newBalance
	w.bump()
	return nil
}

// Debit decreases the balance by amount. Fails with InsufficientFundsError
// if the balance would go negative.
func (w *Wallet) Debit(amount money.Money) error {
	if err := w.assertMutable(); err != nil {
		return err
	}
	if !amount.IsPositive() {
		return domainerrors.NewValidationError("amount", "must be positive")
	}
	if !amount.SameCurrency(w.balance) {
		return domainerrors.NewInvalidTransferError("currency mismatch between wallet and amount")
	}
	if w.balance.LessThan(amount) {
		return domainerrors.NewInsufficientFundsError(w.balance.String(), amount.String())
	}
	newBalance, err := w.balance.Sub(amount)
	if err != nil {
		return err
	}
	w.balance = newBalance
	w.bump()
	return nil
}

// Freeze moves the wallet from ACTIVE to FROZEN. A wallet already FROZEN or
// CLOSED cannot be frozen again.
func (w *Wallet) Freeze() error {
	if w.status != WalletStatusActive {
		return domainerrors.NewWalletStatusViolationError(string(w.status), "freeze")
	}
	w.status = WalletStatusFrozen
	w.bump()
	return nil
}

// Close moves the wallet to CLOSED from either ACTIVE or FROZEN.
func (w *Wallet) Close() error {
	if w.status == WalletStatusClosed {
		return domainerrors.NewWalletStatusViolationError(string(w.status), "close")
	}
	w.status = WalletStatusClosed
	w.bump()
	return nil
}

func (w *Wallet) assertMutable() error {
	if w.status != WalletStatusActive {
		return domainerrors.NewWalletStatusViolationError(string(w.status), "mutate balance")
	}
	return nil
}

func (w *Wallet) bump() {
	w.version++
	w.updatedAt = time.Now().UTC()
}
