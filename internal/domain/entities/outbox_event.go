package entities

import (
	"time"

	"github.com/google/uuid"
)

// OutboxEventStatus tracks delivery progress of one outbox row.
type OutboxEventStatus string

const (
	OutboxEventStatusPending   OutboxEventStatus = "PENDING"
	OutboxEventStatusPublished OutboxEventStatus = "PUBLISHED"
	OutboxEventStatusFailed    OutboxEventStatus = "FAILED"
)

// OutboxEvent is a row in the transactional outbox: written in the same
// database transaction as the domain mutation that produced it, drained
// asynchronously by the outbox publisher. Delivery is at-least-once — a
// publish can succeed, the mark-published write can still fail, and the
// row gets redelivered next cycle.
type OutboxEvent struct {
	id          uuid.UUID
	aggregateID uuid.UUID
	eventType   string
	payload     []byte
	status      OutboxEventStatus
	attempts    int
	createdAt   time.Time
	publishedAt *time.Time
}

// NewOutboxEvent creates a pending outbox row for insertion alongside the
// domain write that produced it.
func NewOutboxEvent(aggregateID uuid.UUID, eventType string, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		id:          uuid.New(),
		aggregateID: aggregateID,
		eventType:   eventType,
		payload:     payload,
		status:      OutboxEventStatusPending,
		createdAt:   time.Now().UTC(),
	}
}

// ReconstructOutboxEvent rebuilds an OutboxEvent from persisted state.
func ReconstructOutboxEvent(id, aggregateID uuid.UUID, eventType string, payload []byte, status OutboxEventStatus, attempts int, createdAt time.Time, publishedAt *time.Time) *OutboxEvent {
	return &OutboxEvent{
		id:          id,
		aggregateID: aggregateID,
		eventType:   eventType,
		payload:     payload,
		status:      status,
		attempts:    attempts,
		createdAt:   createdAt,
		publishedAt: publishedAt,
	}
}

func (e *OutboxEvent) ID() uuid.UUID           { return e.id }
func (e *OutboxEvent) AggregateID() uuid.UUID  { return e.aggregateID }
func (e *OutboxEvent) EventType() string       { return e.eventType }
func (e *OutboxEvent) Payload() []byte         { return e.payload }
func (e *OutboxEvent) Status() OutboxEventStatus { return e.status }
func (e *OutboxEvent) Attempts() int           { return e.attempts }
func (e *OutboxEvent) CreatedAt() time.Time    { return e.createdAt }
func (e *OutboxEvent) PublishedAt() *time.Time { return e.publishedAt }

// MarkPublished transitions the row to PUBLISHED.
func (e *OutboxEvent) MarkPublished() {
	now := time.Now().UTC()
	e.status = OutboxEventStatusPublished
	e.publishedAt = &now
}

// MarkFailed records one more failed attempt. The row stays eligible for
// later drain cycles; the lease does not exclude rows by attempt count.
func (e *OutboxEvent) MarkFailed() {
	e.attempts++
	e.status = OutboxEventStatusFailed
}
