// Package observability wires the bus and outbox publisher to Prometheus,
// following the promauto registration pattern the HTTP middleware metrics
// already use.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	busDispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletledger",
			Subsystem: "bus",
			Name:      "dispatch_total",
			Help:      "Total number of command/query dispatches",
		},
		[]string{"kind", "name", "outcome"},
	)

	outboxPublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletledger",
			Subsystem: "outbox",
			Name:      "publish_total",
			Help:      "Total number of outbox rows published to the event log",
		},
		[]string{"event_type", "outcome"},
	)

	outboxDrainCycle = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletledger",
			Subsystem: "outbox",
			Name:      "drain_cycle_rows",
			Help:      "Rows published vs failed per publisher drain cycle",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
		},
		[]string{"result"},
	)
)

// BusMetrics implements bus.Metrics.
type BusMetrics struct{}

// NewBusMetrics returns a BusMetrics recorder backed by the package's
// promauto collectors.
func NewBusMetrics() *BusMetrics { return &BusMetrics{} }

// ObserveDispatch records the outcome of one bus.Dispatch/QueryDispatch call.
func (BusMetrics) ObserveDispatch(kind, name string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	busDispatchTotal.WithLabelValues(kind, name, outcome).Inc()
}

// PublisherMetrics implements outbox.PublisherMetrics.
type PublisherMetrics struct{}

// NewPublisherMetrics returns a PublisherMetrics recorder backed by the
// package's promauto collectors.
func NewPublisherMetrics() *PublisherMetrics { return &PublisherMetrics{} }

// ObservePublish records one outbox row's publish attempt.
func (PublisherMetrics) ObservePublish(eventType string, err error) {
	outcome := "published"
	if err != nil {
		outcome = "failed"
	}
	outboxPublishTotal.WithLabelValues(eventType, outcome).Inc()
}

// ObserveDrainCycle records how many rows a single drain cycle published or
// failed.
func (PublisherMetrics) ObserveDrainCycle(published, failed int) {
	outboxDrainCycle.WithLabelValues("published").Observe(float64(published))
	outboxDrainCycle.WithLabelValues("failed").Observe(float64(failed))
}
