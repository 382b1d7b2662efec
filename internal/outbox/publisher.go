package outbox

import (
	"context"
	"log/slog"
	"time"

	"github.com/wallethub/ledger/internal/application/ports"
	"github.com/wallethub/ledger/internal/domain/entities"
	"github.com/wallethub/ledger/internal/resilience/breaker"
	"github.com/wallethub/ledger/internal/resilience/degradation"
)

// PublisherMetrics is the subset of the observability surface Publisher
// needs, kept as an interface to avoid a direct dependency on the
// Prometheus collector types.
type PublisherMetrics interface {
	ObservePublish(eventType string, err error)
	ObserveDrainCycle(published, failed int)
}

type noopPublisherMetrics struct{}

func (noopPublisherMetrics) ObservePublish(string, error) {}
func (noopPublisherMetrics) ObserveDrainCycle(int, int)   {}

// PublisherConfig controls the drain loop.
type PublisherConfig struct {
	BatchSize    int
	PollInterval time.Duration
	MaxAttempts  int
}

// DefaultPublisherConfig returns sane production defaults for the drain
// loop's batch size, poll interval, and per-row attempt cap.
func DefaultPublisherConfig() PublisherConfig {
	return PublisherConfig{
		BatchSize:    100,
		PollInterval: 500 * time.Millisecond,
		MaxAttempts:  8,
	}
}

// Publisher drains pending outbox rows to the event log at-least-once. A
// failed publish of a row whose attempts have reached MaxAttempts is logged
// as an error; the row is marked FAILED again and is still leased and
// retried on later cycles.
type Publisher struct {
	repo     ports.OutboxRepository
	eventLog ports.EventLogPort
	breaker  *breaker.Breaker
	degrader *degradation.Manager
	cfg      PublisherConfig
	metrics  PublisherMetrics
	logger   *slog.Logger
}

// NewPublisher builds a Publisher. degrader may be nil if degradation
// signaling isn't wanted (e.g. in tests).
func NewPublisher(repo ports.OutboxRepository, eventLog ports.EventLogPort, cb *breaker.Breaker, degrader *degradation.Manager, cfg PublisherConfig, metrics PublisherMetrics, logger *slog.Logger) *Publisher {
	if metrics == nil {
		metrics = noopPublisherMetrics{}
	}
	return &Publisher{
		repo:     repo,
		eventLog: eventLog,
		breaker:  cb,
		degrader: degrader,
		cfg:      cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// Run drains the outbox on cfg.PollInterval until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.PublishAllPending(ctx); err != nil {
				p.logger.Error("outbox drain cycle failed", slog.Any("error", err))
			}
		}
	}
}

// PublishAllPending leases and publishes one batch of pending rows. Exposed
// directly for tests and for the manual-drain admin HTTP route.
func (p *Publisher) PublishAllPending(ctx context.Context) error {
	rows, err := p.repo.LeaseUnpublished(ctx, p.cfg.BatchSize)
	if err != nil {
		return err
	}

	published, failed := 0, 0
	for _, row := range rows {
		if p.publishOne(ctx, row) {
			published++
		} else {
			failed++
		}
	}
	p.metrics.ObserveDrainCycle(published, failed)

	if p.degrader != nil {
		pending, err := p.repo.CountPending(ctx)
		if err == nil {
			p.degrader.Set(degradation.EventProcessingDegraded, pending > p.cfg.BatchSize*5)
		}
	}
	return nil
}

func (p *Publisher) publishOne(ctx context.Context, row *entities.OutboxEvent) bool {
	partitionKey := partitionKeyFor(row.AggregateID())

	var publishErr error
	if p.breaker != nil {
		_, publishErr = p.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
			return nil, p.eventLog.Append(ctx, partitionKey, row.ID().String(), row.Payload())
		})
	} else {
		publishErr = p.eventLog.Append(ctx, partitionKey, row.ID().String(), row.Payload())
	}

	p.metrics.ObservePublish(row.EventType(), publishErr)

	if publishErr != nil {
		if row.Attempts() >= p.cfg.MaxAttempts {
			p.logger.Error("outbox row exceeded max attempts, leaving failed",
				slog.String("event_id", row.ID().String()),
				slog.String("event_type", row.EventType()),
				slog.Int("attempts", row.Attempts()),
			)
		}
		if err := p.repo.MarkFailed(ctx, row.ID()); err != nil {
			p.logger.Error("failed to mark outbox row failed", slog.Any("error", err))
		}
		return false
	}

	if err := p.repo.MarkPublished(ctx, row.ID()); err != nil {
		// The event log delivery already happened — this is the
		// at-least-once seam: a crash here means the same row gets
		// redelivered next cycle, not lost.
		p.logger.Error("failed to mark outbox row published", slog.Any("error", err))
		return false
	}
	return true
}
