// Package observability holds the telemetry ports of the ledger. Use cases, workers and
// the HTTP shell log, trace and measure only through these; adapters for zap,
// OpenTelemetry and Prometheus live under infrastructure/observability.
package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Observability is what a component receives at construction.
type Observability interface {
	Tracer() Tracer
	Logger() Logger
	Metrics() Metrics
}

// Logger writes structured entries. Messages are snake_case event names such as
// "use_case_done"; everything variable goes into fields.
type Logger interface {
	With(fields ...Field) Logger
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Err is the "error" field every failure log carries.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Tracer starts spans; the span type is OpenTelemetry's so callers can record
// events and status directly.
type Tracer interface {
	Start(ctx context.Context, spanName string, attrs ...attribute.KeyValue) (context.Context, trace.Span)
}

// Metrics resolves instruments by key. A key without a registered instrument resolves
// to a no-op, so callers never nil-check.
type Metrics interface {
	Counter(key MetricKey) Counter
	Histogram(key MetricKey) Histogram
}

// Counter labels are given per call, or bound once when they stay fixed for the
// caller's lifetime.
type (
	Counter interface {
		Add(v float64, labels ...Label)
		Bind(labels ...Label) BoundCounter
	}
	BoundCounter interface{ Add(v float64) }
)

type (
	Histogram interface {
		Observe(v float64, labels ...Label)
		Bind(labels ...Label) BoundHistogram
	}
	BoundHistogram interface{ Observe(v float64) }
)

// Label is one metric label; its Key must be among the labels of the metric's spec.
type Label struct{ Key, Value string }

func L(key, value string) Label { return Label{Key: key, Value: value} }
