// Package events defines the domain events emitted onto the transactional
// outbox. Events are immutable facts about what already happened — they are
// never used to decide whether an operation is allowed, only to notify
// downstream consumers after the fact.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is anything that can be appended to the outbox.
type DomainEvent interface {
	EventType() string
	AggregateID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent carries the fields every event shares.
type BaseEvent struct {
	Type        string    `json:"event_type"`
	Aggregate   uuid.UUID `json:"aggregate_id"`
	OccurredAtT time.Time `json:"occurred_at"`
}

func (b BaseEvent) EventType() string     { return b.Type }
func (b BaseEvent) AggregateID() uuid.UUID { return b.Aggregate }
func (b BaseEvent) OccurredAt() time.Time  { return b.OccurredAtT }

func newBase(eventType string, aggregateID uuid.UUID) BaseEvent {
	return BaseEvent{Type: eventType, Aggregate: aggregateID, OccurredAtT: time.Now().UTC()}
}

// WalletCreated fires once, when a wallet is first opened.
type WalletCreated struct {
	BaseEvent
	WalletID string `json:"wallet_id"`
	UserID   string `json:"user_id"`
	Currency string `json:"currency"`
}

func NewWalletCreated(walletID uuid.UUID, userID, currency string) WalletCreated {
	return WalletCreated{
		BaseEvent: newBase("wallet.created", walletID),
		WalletID:  walletID.String(),
		UserID:    userID,
		Currency:  currency,
	}
}

// FundsDeposited fires on a successful deposit.
type FundsDeposited struct {
	BaseEvent
	WalletID      string `json:"wallet_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReferenceID   string `json:"reference_id"`
}

func NewFundsDeposited(walletID, transactionID uuid.UUID, amount, currency, referenceID string) FundsDeposited {
	return FundsDeposited{
		BaseEvent:     newBase("wallet.funds_deposited", walletID),
		WalletID:      walletID.String(),
		TransactionID: transactionID.String(),
		Amount:        amount,
		Currency:      currency,
		ReferenceID:   referenceID,
	}
}

// FundsWithdrawn fires on a successful withdrawal.
type FundsWithdrawn struct {
	BaseEvent
	WalletID      string `json:"wallet_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	ReferenceID   string `json:"reference_id"`
}

func NewFundsWithdrawn(walletID, transactionID uuid.UUID, amount, currency, referenceID string) FundsWithdrawn {
	return FundsWithdrawn{
		BaseEvent:     newBase("wallet.funds_withdrawn", walletID),
		WalletID:      walletID.String(),
		TransactionID: transactionID.String(),
		Amount:        amount,
		Currency:      currency,
		ReferenceID:   referenceID,
	}
}

// FundsTransferred fires once per transfer, keyed on the source wallet, and
// carries both legs so a consumer doesn't have to correlate two events.
type FundsTransferred struct {
	BaseEvent
	SourceWalletID      string `json:"source_wallet_id"`
	DestinationWalletID string `json:"destination_wallet_id"`
	SourceTransactionID string `json:"source_transaction_id"`
	DestTransactionID   string `json:"destination_transaction_id"`
	Amount              string `json:"amount"`
	Currency            string `json:"currency"`
	ReferenceID         string `json:"reference_id"`
}

func NewFundsTransferred(sourceWalletID, destWalletID, sourceTxID, destTxID uuid.UUID, amount, currency, referenceID string) FundsTransferred {
	return FundsTransferred{
		BaseEvent:           newBase("wallet.funds_transferred", sourceWalletID),
		SourceWalletID:      sourceWalletID.String(),
		DestinationWalletID: destWalletID.String(),
		SourceTransactionID: sourceTxID.String(),
		DestTransactionID:   destTxID.String(),
		Amount:              amount,
		Currency:            currency,
		ReferenceID:         referenceID,
	}
}
