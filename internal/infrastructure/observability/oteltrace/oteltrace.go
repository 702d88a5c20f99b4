package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type tracer struct{ t trace.Tracer }

// New returns a tracer bound to the global TracerProvider; telemetry.Setup installs it.
func New(name string) observability.Tracer {
	if name == "" {
		name = "minishop-ledger"
	}
	return &tracer{t: otel.Tracer(name)}
}

// FromProvider binds to an explicit provider instead of the global one.
func FromProvider(tp trace.TracerProvider, name string) observability.Tracer {
	if name == "" {
		name = "minishop-ledger"
	}
	return &tracer{t: tp.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
