// Package bus implements the command/query dispatch layer: a typed
// registry that routes a Command or Query to exactly one registered
// handler, wrapped in an OpenTelemetry span and Prometheus counters per
// request type.
package bus

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Command is dispatched to exactly one handler and mutates state.
type Command interface {
	CommandName() string
}

// Query is dispatched to exactly one handler and never mutates state.
type Query interface {
	QueryName() string
}

type commandHandlerFunc func(ctx context.Context, cmd Command) (any, error)
type queryHandlerFunc func(ctx context.Context, q Query) (any, error)

var tracer = otel.Tracer("github.com/wallethub/ledger/internal/bus")

// Metrics is the subset of the observability surface the bus needs. Kept as
// an interface here so internal/bus has no import-time dependency on
// internal/observability's concrete Prometheus collectors.
type Metrics interface {
	ObserveDispatch(kind, name string, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveDispatch(string, string, error) {}

// Bus dispatches commands and queries by name. Registering two handlers
// under the same name is a programmer error and panics at registration
// time, not at dispatch time.
type Bus struct {
	commands map[string]commandHandlerFunc
	queries  map[string]queryHandlerFunc
	metrics  Metrics
}

// New creates an empty Bus. Pass nil for metrics to use a no-op recorder.
func New(metrics Metrics) *Bus {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Bus{
		commands: make(map[string]commandHandlerFunc),
		queries:  make(map[string]queryHandlerFunc),
		metrics:  metrics,
	}
}

// CommandHandler handles one concrete Command type C, returning result R.
type CommandHandler[C Command, R any] func(ctx context.Context, cmd C) (R, error)

// QueryHandler handles one concrete Query type Q, returning result R.
type QueryHandler[Q Query, R any] func(ctx context.Context, q Q) (R, error)

// RegisterCommand wires a typed handler into bus under name; Dispatch finds
// it only when name matches the command's CommandName().
func RegisterCommand[C Command, R any](b *Bus, name string, handler CommandHandler[C, R]) {
	if _, exists := b.commands[name]; exists {
		panic(fmt.Sprintf("bus: command handler already registered for %q", name))
	}
	b.commands[name] = func(ctx context.Context, cmd Command) (any, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("bus: command %q has unexpected type %T", name, cmd)
		}
		return handler(ctx, typed)
	}
}

// RegisterQuery wires a typed handler into bus under name; QueryDispatch
// finds it only when name matches the query's QueryName().
func RegisterQuery[Q Query, R any](b *Bus, name string, handler QueryHandler[Q, R]) {
	if _, exists := b.queries[name]; exists {
		panic(fmt.Sprintf("bus: query handler already registered for %q", name))
	}
	b.queries[name] = func(ctx context.Context, q Query) (any, error) {
		typed, ok := q.(Q)
		if !ok {
			return nil, fmt.Errorf("bus: query %q has unexpected type %T", name, q)
		}
		return handler(ctx, typed)
	}
}

// NoHandlerRegisteredError reports a dispatch against a name with nothing
// registered — a wiring bug, not a domain error.
type NoHandlerRegisteredError struct {
	Kind string
	Name string
}

func (e *NoHandlerRegisteredError) Error() string {
	return fmt.Sprintf("bus: no %s handler registered for %q", e.Kind, e.Name)
}

// Dispatch routes cmd to its registered handler inside a traced span.
func Dispatch(ctx context.Context, b *Bus, cmd Command) (any, error) {
	name := cmd.CommandName()
	ctx, span := tracer.Start(ctx, "bus.dispatch_command", trace.WithAttributes(
		attribute.String("bus.command", name),
	))
	defer span.End()

	handler, ok := b.commands[name]
	if !ok {
		err := &NoHandlerRegisteredError{Kind: "command", Name: name}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.ObserveDispatch("command", name, err)
		return nil, err
	}

	result, err := handler(ctx, cmd)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	b.metrics.ObserveDispatch("command", name, err)
	return result, err
}

// QueryDispatch routes q to its registered handler inside a traced span.
func QueryDispatch(ctx context.Context, b *Bus, q Query) (any, error) {
	name := q.QueryName()
	ctx, span := tracer.Start(ctx, "bus.dispatch_query", trace.WithAttributes(
		attribute.String("bus.query", name),
	))
	defer span.End()

	handler, ok := b.queries[name]
	if !ok {
		err := &NoHandlerRegisteredError{Kind: "query", Name: name}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.metrics.ObserveDispatch("query", name, err)
		return nil, err
	}

	result, err := handler(ctx, q)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	b.metrics.ObserveDispatch("query", name, err)
	return result, err
}

// DispatchTyped is Dispatch plus the type assertion on the result, for
// callers that know their handler's return type.
func DispatchTyped[R any](ctx context.Context, b *Bus, cmd Command) (R, error) {
	var zero R
	result, err := Dispatch(ctx, b, cmd)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("bus: command %q returned unexpected type %T", cmd.CommandName(), result)
	}
	return typed, nil
}

// QueryTyped is QueryDispatch plus the type assertion on the result.
func QueryTyped[R any](ctx context.Context, b *Bus, q Query) (R, error) {
	var zero R
	result, err := QueryDispatch(ctx, b, q)
	if err != nil {
		return zero, err
	}
	typed, ok := result.(R)
	if !ok {
		return zero, fmt.Errorf("bus: query %q returned unexpected type %T", q.QueryName(), result)
	}
	return typed, nil
}
