// Package outbox implements the transactional outbox pattern: a write-side
// Service that appends events inside the caller's transaction, and a
// background Publisher that drains them to the event log.
package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/domain/events"
)

// Service is the write-side of the outbox: it must always be called inside
// the same UnitOfWork transaction as the domain mutation the event
// documents, so the event either commits with the mutation or rolls back
// with it — never one without the other.
type Service struct {
	repo ports.OutboxRepository
}

// NewService builds a Service over repo.
func NewService(repo ports.OutboxRepository) *Service {
	return &Service{repo: repo}
}

// Store marshals event to JSON and inserts a pending outbox row for it.
func (s *Service) Store(ctx context.Context, event events.DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("outbox: marshal event %s: %w", event.EventType(), err)
	}
	row := entities.NewOutboxEvent(event.AggregateID(), event.EventType(), payload)
	return s.repo.Save(ctx, row)
}

// StoreAll stores every event, in order, within the caller's transaction.
func (s *Service) StoreAll(ctx context.Context, evts ...events.DomainEvent) error {
	for _, e := range evts {
		if err := s.Store(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// partitionKeyFor derives the NATS subject partition key
// from a row's aggregate id (the wallet id).
func partitionKeyFor(aggregateID uuid.UUID) string {
	return aggregateID.String()
}
