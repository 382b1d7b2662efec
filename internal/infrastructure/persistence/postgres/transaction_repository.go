// Package postgres implements the persistence layer against PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	domainerrors "github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/money"
)

var _ ports.TransactionRepository = (*TransactionRepository)(nil)

// TransactionRepository implements ports.TransactionRepository. Rows are
// immutable once written — idempotency is enforced by a unique
// (wallet_id, reference_id) constraint, which Save surfaces as
// *domainerrors.DuplicateReferenceError.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository builds a TransactionRepository over pool.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a transaction row. Transactions are append-only — there is
// no update path.
func (r *TransactionRepository) Save(ctx context.Context, tx *entities.Transaction) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO transactions (
			id, wallet_id, transaction_type, status, amount, currency,
			reference_id, counterparty_wallet_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := q.Exec(ctx, query,
		tx.ID(),
		tx.WalletID(),
		string(tx.Type()),
		string(tx.Status()),
		tx.Amount().Decimal(),
		tx.Amount().Currency(),
		tx.ReferenceID(),
		tx.CounterpartyWalletID(),
		tx.CreatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "transactions_wallet_reference_unique") {
			return domainerrors.NewDuplicateReferenceError(tx.WalletID().String(), tx.ReferenceID())
		}
		if isForeignKeyViolation(err) {
			return domainerrors.ErrWalletNotFound
		}
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

// FindByID loads a transaction by id.
func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, wallet_id, transaction_type, status, amount, currency,
			   reference_id, counterparty_wallet_id, created_at
		FROM transactions
		WHERE id = $1
	`

	return r.scanTransaction(q.QueryRow(ctx, query, id))
}

// FindByReference is the idempotency pre-check every write handler runs
// first: looks up a transaction already recorded for (walletID, referenceID).
func (r *TransactionRepository) FindByReference(ctx context.Context, walletID uuid.UUID, referenceID string) (*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, wallet_id, transaction_type, status, amount, currency,
			   reference_id, counterparty_wallet_id, created_at
		FROM transactions
		WHERE wallet_id = $1 AND reference_id = $2
	`

	return r.scanTransaction(q.QueryRow(ctx, query, walletID, referenceID))
}

// ListForWallet returns a wallet's COMPLETED transactions ordered by
// (created_at, id), bounded above by asOf when it is non-nil, so the
// historical-balance query can fold them into a point-in-time balance.
func (r *TransactionRepository) ListForWallet(ctx context.Context, walletID uuid.UUID, asOf *time.Time) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, wallet_id, transaction_type, status, amount, currency,
			   reference_id, counterparty_wallet_id, created_at
		FROM transactions
		WHERE wallet_id = $1 AND status = 'COMPLETED'
	`
	args := []any{walletID}

	if asOf != nil {
		query += " AND created_at <= $2"
		args = append(args, *asOf)
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

// List returns transactions matching filter, for the admin read-side.
func (r *TransactionRepository) List(ctx context.Context, filter ports.TransactionFilter, offset, limit int) ([]*entities.Transaction, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, wallet_id, transaction_type, status, amount, currency,
			   reference_id, counterparty_wallet_id, created_at
		FROM transactions
		WHERE 1=1
	`

	args := []any{}
	argNum := 1

	if filter.WalletID != nil {
		query += fmt.Sprintf(" AND wallet_id = $%d", argNum)
		args = append(args, *filter.WalletID)
		argNum++
	}
	if filter.Type != nil {
		query += fmt.Sprintf(" AND transaction_type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	return r.scanTransactions(rows)
}

func (r *TransactionRepository) scanTransaction(row pgx.Row) (*entities.Transaction, error) {
	var (
		id, walletID             uuid.UUID
		txTypeStr, statusStr     string
		amount                   decimal.Decimal
		currency, referenceID    string
		counterpartyWalletID     *uuid.UUID
		createdAt                time.Time
	)

	err := row.Scan(&id, &walletID, &txTypeStr, &statusStr, &amount, &currency, &referenceID, &counterpartyWalletID, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to scan transaction: %w", err)
	}

	m, err := money.FromDecimal(amount, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert transaction amount: %w", err)
	}

	return entities.ReconstructTransaction(id, walletID, entities.TransactionType(txTypeStr), m, referenceID, counterpartyWalletID, entities.TransactionStatus(statusStr), createdAt), nil
}

func (r *TransactionRepository) scanTransactions(rows pgx.Rows) ([]*entities.Transaction, error) {
	var transactions []*entities.Transaction

	for rows.Next() {
		var (
			id, walletID          uuid.UUID
			txTypeStr, statusStr  string
			amount                decimal.Decimal
			currency, referenceID string
			counterpartyWalletID  *uuid.UUID
			createdAt             time.Time
		)

		if err := rows.Scan(&id, &walletID, &txTypeStr, &statusStr, &amount, &currency, &referenceID, &counterpartyWalletID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}

		m, err := money.FromDecimal(amount, currency)
		if err != nil {
			return nil, fmt.Errorf("failed to convert transaction amount: %w", err)
		}

		transactions = append(transactions, entities.ReconstructTransaction(id, walletID, entities.TransactionType(txTypeStr), m, referenceID, counterpartyWalletID, entities.TransactionStatus(statusStr), createdAt))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}
