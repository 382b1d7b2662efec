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

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
)

var _ ports.OutboxRepository = (*OutboxRepository)(nil)

// OutboxRepository implements ports.OutboxRepository, the write side and
// lease queue of the transactional outbox that the background publisher
// drains to the event log.
type OutboxRepository struct {
	pool *pgxpool.Pool
}

// NewOutboxRepository builds an OutboxRepository over pool.
func NewOutboxRepository(pool *pgxpool.Pool) *OutboxRepository {
	return &OutboxRepository{pool: pool}
}

func (r *OutboxRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// Save inserts a pending outbox row. Always called within the same
// transaction as the domain mutation it documents — outbox.Service is the
// only caller.
func (r *OutboxRepository) Save(ctx context.Context, event *entities.OutboxEvent) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO outbox_events (
			id, aggregate_id, event_type, payload, status, attempts, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(ctx, query,
		event.ID(),
		event.AggregateID(),
		event.EventType(),
		event.Payload(),
		string(event.Status()),
		event.Attempts(),
		event.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save outbox event: %w", err)
	}

	return nil
}

// LeaseUnpublished locks up to limit PENDING or FAILED rows, whatever their
// attempt count, with SELECT ... FOR UPDATE SKIP LOCKED, so concurrent publisher instances
// never double-send the same row. The lease lives only as long as the
// caller's transaction holds the row lock.
func (r *OutboxRepository) LeaseUnpublished(ctx context.Context, limit int) ([]*entities.OutboxEvent, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT id, aggregate_id, event_type, payload, status, attempts, created_at, published_at
		FROM outbox_events
		WHERE status = 'PENDING' OR status = 'FAILED'
		ORDER BY created_at ASC
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`

	rows, err := q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to lease outbox events: %w", err)
	}
	defer rows.Close()

	var leased []*entities.OutboxEvent
	for rows.Next() {
		event, err := r.scanOutboxEvent(rows)
		if err != nil {
			return nil, err
		}
		leased = append(leased, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outbox rows: %w", err)
	}

	return leased, nil
}

// MarkPublished transitions a row to PUBLISHED.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE outbox_events
		SET status = 'PUBLISHED', published_at = $2
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errors.New("outbox event not found")
	}

	return nil
}

// MarkFailed records a failed publish attempt, incrementing attempts.
func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	q := r.getQuerier(ctx)

	query := `
		UPDATE outbox_events
		SET status = 'FAILED', attempts = attempts + 1
		WHERE id = $1
	`

	result, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event failed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return errors.New("outbox event not found")
	}

	return nil
}

// CountPending returns how many rows are still awaiting publication,
// feeding the degradation manager's event_processing_degraded signal.
func (r *OutboxRepository) CountPending(ctx context.Context) (int, error) {
	q := r.getQuerier(ctx)

	var count int
	err := q.QueryRow(ctx, `SELECT count(*) FROM outbox_events WHERE status = 'PENDING' OR status = 'FAILED'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}

	return count, nil
}

func (r *OutboxRepository) scanOutboxEvent(rows pgx.Rows) (*entities.OutboxEvent, error) {
	var (
		id, aggregateID uuid.UUID
		eventType       string
		payload         []byte
		statusStr       string
		attempts        int
		createdAt       time.Time
		publishedAt     *time.Time
	)

	if err := rows.Scan(&id, &aggregateID, &eventType, &payload, &statusStr, &attempts, &createdAt, &publishedAt); err != nil {
		return nil, fmt.Errorf("failed to scan outbox row: %w", err)
	}

	return entities.ReconstructOutboxEvent(id, aggregateID, eventType, payload, entities.OutboxEventStatus(statusStr), attempts, createdAt, publishedAt), nil
}
