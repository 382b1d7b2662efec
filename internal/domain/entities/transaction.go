package entities

import (
	"time"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/domain/money"
)

// TransactionType classifies why a Transaction row exists against a wallet.
// A transfer produces two rows, one per wallet, linked by ReferenceID and
// each other's wallet id as CounterpartyWalletID — see DESIGN.md's Open
// Question resolution.
type TransactionType string

const (
	TransactionTypeDeposit     TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTypeTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTypeTransferIn  TransactionType = "TRANSFER_IN"
)

// TransactionStatus is terminal-only: the write path is synchronous, so a
// Transaction row is only ever created already resolved.
type TransactionStatus string

const (
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusRejected  TransactionStatus = "REJECTED"
)

// Transaction is an immutable record of one balance movement against one
// wallet. It is the unit the historical-balance fold replays.
type Transaction struct {
	id                   uuid.UUID
	walletID             uuid.UUID
	txType               TransactionType
	amount               money.Money
	referenceID          string
	counterpartyWalletID *uuid.UUID
	status               TransactionStatus
	createdAt            time.Time
}

// NewCompletedTransaction records a successfully-applied balance movement.
func NewCompletedTransaction(walletID uuid.UUID, txType TransactionType, amount money.Money, referenceID string, counterpartyWalletID *uuid.UUID) *Transaction {
	return &Transaction{
		id:                   uuid.New(),
		walletID:             walletID,
		txType:               txType,
		amount:               amount,
		referenceID:          referenceID,
		counterpartyWalletID: counterpartyWalletID,
		status:               TransactionStatusCompleted,
		createdAt:            time.Now().UTC(),
	}
}

// ReconstructTransaction rebuilds a Transaction from persisted state.
func ReconstructTransaction(id, walletID uuid.UUID, txType TransactionType, amount money.Money, referenceID string, counterpartyWalletID *uuid.UUID, status TransactionStatus, createdAt time.Time) *Transaction {
	return &Transaction{
		id:                   id,
		walletID:             walletID,
		txType:               txType,
		amount:               amount,
		referenceID:          referenceID,
		counterpartyWalletID: counterpartyWalletID,
		status:               status,
		createdAt:            createdAt,
	}
}

func (t *Transaction) ID() uuid.UUID                    { return t.id }
func (t *Transaction) WalletID() uuid.UUID               { return t.walletID }
func (t *Transaction) Type() TransactionType             { return t.txType }
func (t *Transaction) Amount() money.Money               { return t.amount }
func (t *Transaction) ReferenceID() string               { return t.referenceID }
func (t *Transaction) CounterpartyWalletID() *uuid.UUID  { return t.counterpartyWalletID }
func (t *Transaction) Status() TransactionStatus         { return t.status }
func (t *Transaction) CreatedAt() time.Time              { return t.createdAt }

// IsCredit reports whether this row increases the wallet's balance when
// folded (DEPOSIT, TRANSFER_IN) versus decreases it (WITHDRAWAL,
// TRANSFER_OUT).
func (t *Transaction) IsCredit() bool {
	return t.txType == TransactionTypeDeposit || t.txType == TransactionTypeTransferIn
}
