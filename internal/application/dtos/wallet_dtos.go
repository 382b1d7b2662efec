// Package dtos holds the command/query/result shapes that cross the
// application-layer boundary: the bus dispatches commands/queries of these
// types, and HTTP handlers translate request bodies into them and results
// back out.
package dtos

import "time"

// ============================================
// Commands
// ============================================

// CreateWalletCommand opens a new wallet for a user in one currency.
type CreateWalletCommand struct {
	UserID   string `json:"user_id" validate:"required"`
	Currency string `json:"currency" validate:"required,len=3"`
}

func (CreateWalletCommand) CommandName() string { return "CreateWallet" }

// DepositCommand credits a wallet. ReferenceID is the idempotency key: a
// retried command with the same (WalletID, ReferenceID) returns the
// original result instead of double-crediting.
type DepositCommand struct {
	WalletID    string `json:"wallet_id" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required"`
	ReferenceID string `json:"reference_id" validate:"required"`
}

func (DepositCommand) CommandName() string { return "Deposit" }

// WithdrawCommand debits a wallet.
type WithdrawCommand struct {
	WalletID    string `json:"wallet_id" validate:"required,uuid"`
	Amount      string `json:"amount" validate:"required"`
	ReferenceID string `json:"reference_id" validate:"required"`
}

func (WithdrawCommand) CommandName() string { return "Withdraw" }

// TransferCommand moves funds from one wallet to another, same currency
// only.
type TransferCommand struct {
	SourceWalletID      string `json:"source_wallet_id" validate:"required,uuid"`
	DestinationWalletID string `json:"destination_wallet_id" validate:"required,uuid"`
	Amount              string `json:"amount" validate:"required"`
	ReferenceID         string `json:"reference_id" validate:"required"`
}

func (TransferCommand) CommandName() string { return "Transfer" }

// ============================================
// Queries
// ============================================

// GetWalletQuery fetches current wallet state.
type GetWalletQuery struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
}

func (GetWalletQuery) QueryName() string { return "GetWallet" }

// GetHistoricalBalanceQuery reconstructs a wallet's balance as of a point
// in time, by folding its COMPLETED transactions.
type GetHistoricalBalanceQuery struct {
	WalletID string    `json:"wallet_id" validate:"required,uuid"`
	AsOf     time.Time `json:"as_of" validate:"required"`
}

func (GetHistoricalBalanceQuery) QueryName() string { return "GetHistoricalBalance" }

// ListWalletsQuery is the admin read-side wallet listing.
type ListWalletsQuery struct {
	UserID   *string `json:"user_id,omitempty"`
	Currency *string `json:"currency,omitempty"`
	Status   *string `json:"status,omitempty"`
	Offset   int      `json:"offset" validate:"min=0"`
	Limit    int      `json:"limit" validate:"min=1,max=100"`
}

func (ListWalletsQuery) QueryName() string { return "ListWallets" }

// ============================================
// Results
// ============================================

// WalletDTO is the API representation of wallet state.
type WalletDTO struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	// AsOf and Stale surface the cache-aside staleness bound: AsOf is when
	// this snapshot was produced, Stale is set when it was served from
	// cache rather than read fresh from the repository.
	AsOf  time.Time `json:"as_of"`
	Stale bool      `json:"stale,omitempty"`
}

// WalletListDTO is the admin listing result.
type WalletListDTO struct {
	Wallets    []WalletDTO `json:"wallets"`
	TotalCount int         `json:"total_count"`
	Offset     int         `json:"offset"`
	Limit      int         `json:"limit"`
}

// WalletOperationResult is returned by Deposit/Withdraw.
type WalletOperationResult struct {
	Wallet        WalletDTO `json:"wallet"`
	TransactionID string    `json:"transaction_id"`
	Idempotent    bool      `json:"idempotent"` // true if this replayed an existing reference_id
}

// TransferResult is returned by Transfer.
type TransferResult struct {
	SourceWallet      WalletDTO `json:"source_wallet"`
	DestinationWallet WalletDTO `json:"destination_wallet"`
	SourceTransaction string    `json:"source_transaction_id"`
	DestTransaction   string    `json:"destination_transaction_id"`
	Idempotent        bool      `json:"idempotent"`
}

// HistoricalBalanceResult is returned by GetHistoricalBalance.
type HistoricalBalanceResult struct {
	WalletID string    `json:"wallet_id"`
	Balance  string    `json:"balance"`
	Currency string    `json:"currency"`
	AsOf     time.Time `json:"as_of"`
}
