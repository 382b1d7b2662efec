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

var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository implements ports.WalletRepository against a
// wallets table with a decimal balance column and an optimistic-locked
// version column. The container binds a single instance to its one pool,
// which serves writes, the cache-aside fallback path and admin listing
// alike; no separate replica pool is used.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository builds a WalletRepository over pool.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a brand-new wallet (version 1, the value entities.NewWallet
// assigns) or optimistic-locks an update against an existing one.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	if wallet.Version() == 1 {
		return r.insert(ctx, q, wallet)
	}
	return r.update(ctx, q, wallet)
}

func (r *WalletRepository) insert(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		INSERT INTO wallets (
			id, user_id, currency, status, balance, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.Currency(),
		string(wallet.Status()),
		wallet.Balance().Decimal(),
		wallet.Version(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return domainerrors.NewOptimisticLockError("Wallet", wallet.ID().String())
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}

	return nil
}

// update applies an optimistic-locked write: the WHERE clause pins the row
// at the version the caller last read (wallet.Version()-1, since the
// in-memory entity has already bumped past it), so a concurrent writer
// that got there first makes this affect zero rows.
func (r *WalletRepository) update(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		UPDATE wallets SET
			status = $2,
			balance = $3,
			version = $4,
			updated_at = $5
		WHERE id = $1 AND version = $6
	`

	expectedVersion := wallet.Version() - 1

	result, err := q.Exec(ctx, query,
		wallet.ID(),
		string(wallet.Status()),
		wallet.Balance().Decimal(),
		wallet.Version(),
		wallet.UpdatedAt(),
		expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if result.RowsAffected() == 0 {
		return domainerrors.NewOptimisticLockError("Wallet", wallet.ID().String())
	}

	return nil
}

// FindByID loads a wallet by id.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, currency, status, balance, version, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`

	return r.scanWallet(q.QueryRow(ctx, query, id))
}

// List returns wallets matching filter, newest first.
func (r *WalletRepository) List(ctx context.Context, filter ports.WalletFilter, offset, limit int) ([]*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, user_id, currency, status, balance, version, created_at, updated_at
		FROM wallets
		WHERE 1=1
	`

	args := []any{}
	argNum := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.Currency != nil {
		query += fmt.Sprintf(" AND currency = $%d", argNum)
		args = append(args, *filter.Currency)
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
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	defer rows.Close()

	return r.scanWallets(rows)
}

func (r *WalletRepository) scanWallet(row pgx.Row) (*entities.Wallet, error) {
	var (
		id, userID          uuid.UUID
		currency, statusStr string
		balance             decimal.Decimal
		version             int64
		createdAt, updatedAt time.Time
	)

	err := row.Scan(&id, &userID, &currency, &statusStr, &balance, &version, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainerrors.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	amount, err := money.FromDecimal(balance, currency)
	if err != nil {
		return nil, fmt.Errorf("failed to convert wallet balance: %w", err)
	}

	return entities.ReconstructWallet(id, userID, currency, amount, entities.WalletStatus(statusStr), version, createdAt, updatedAt), nil
}

func (r *WalletRepository) scanWallets(rows pgx.Rows) ([]*entities.Wallet, error) {
	var wallets []*entities.Wallet

	for rows.Next() {
		var (
			id, userID           uuid.UUID
			currency, statusStr  string
			balance              decimal.Decimal
			version              int64
			createdAt, updatedAt time.Time
		)

		if err := rows.Scan(&id, &userID, &currency, &statusStr, &balance, &version, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet row: %w", err)
		}

		amount, err := money.FromDecimal(balance, currency)
		if err != nil {
			return nil, fmt.Errorf("failed to convert wallet balance: %w", err)
		}

		wallets = append(wallets, entities.ReconstructWallet(id, userID, currency, amount, entities.WalletStatus(statusStr), version, createdAt, updatedAt))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wallet rows: %w", err)
	}

	return wallets, nil
}
