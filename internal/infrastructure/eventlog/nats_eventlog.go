// Package eventlog implements ports.EventLogPort against NATS JetStream —
// the downstream the outbox publisher drains into, partitioned per wallet
// so a single consumer observes one wallet's events in order.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamEventLog publishes outbox payloads onto a per-wallet JetStream
// subject. The stream itself is expected to already exist (created once at
// deploy time, or lazily by Connect) with a subject wildcard wide enough to
// cover every wallet's partition.
type JetStreamEventLog struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	stream jetstream.Stream

	streamName string
	subjectFmt string // e.g. "wallet.events.%s", formatted with the partition key
}

// Config controls the underlying NATS connection and stream.
type Config struct {
	URL        string
	StreamName string
	SubjectFmt string
}

// Connect dials NATS, opens a JetStream context, and ensures StreamName
// exists with a wildcard subject covering every partition key.
func Connect(ctx context.Context, cfg Config) (*JetStreamEventLog, error) {
	nc, err := nats.Connect(cfg.URL, nats.MaxReconnects(-1), nats.ReconnectWait(time.Second))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("opening jetstream context: %w", err)
	}

	wildcardSubject := subjectWildcard(cfg.SubjectFmt)
	stream, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      cfg.StreamName,
		Subjects:  []string{wildcardSubject},
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("ensuring stream %s: %w", cfg.StreamName, err)
	}

	return &JetStreamEventLog{
		conn:       nc,
		js:         js,
		stream:     stream,
		streamName: cfg.StreamName,
		subjectFmt: cfg.SubjectFmt,
	}, nil
}

// subjectWildcard turns "wallet.events.%s" into "wallet.events.*" so the
// stream subscribes to every partition under one subject filter.
func subjectWildcard(subjectFmt string) string {
	return fmt.Sprintf(subjectFmt, "*")
}

// Append publishes payload on the subject derived from partitionKey, using
// eventID as the JetStream message ID so a redelivered outbox row
// (at-least-once) dedupes on the broker side rather than the consumer.
func (e *JetStreamEventLog) Append(ctx context.Context, partitionKey, eventID string, payload []byte) error {
	subject := fmt.Sprintf(e.subjectFmt, partitionKey)
	_, err := e.js.Publish(ctx, subject, payload, jetstream.WithMsgID(eventID))
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}
	return nil
}

// Ping reports whether the NATS connection is currently up.
func (e *JetStreamEventLog) Ping(ctx context.Context) error {
	if !e.conn.IsConnected() {
		return fmt.Errorf("nats: connection not established")
	}
	return nil
}

// Close drains and closes the underlying connection.
func (e *JetStreamEventLog) Close() {
	e.conn.Close()
}
