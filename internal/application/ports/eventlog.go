package ports

import "context"

// EventLogPort is the downstream event log the outbox publisher appends to.
// Append is partitioned by partitionKey (the wallet id) so a single
// consumer sees one wallet's events in order.
type EventLogPort interface {
	// Append publishes payload under partitionKey, keyed additionally by
	// eventID so a downstream consumer can deduplicate an at-least-once
	// redelivery.
	Append(ctx context.Context, partitionKey, eventID string, payload []byte) error

	// Ping reports whether the event log is reachable, for health probes
	// and the degradation manager's event_processing_degraded signal.
	Ping(ctx context.Context) error
}
