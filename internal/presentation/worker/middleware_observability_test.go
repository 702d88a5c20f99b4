package workerpresentation

import (
	"context"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-ledger/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability/logctx"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSubscriber map[string][]domoutbox.Handler

func (s fakeSubscriber) Subscribe(name string, h domoutbox.Handler) { s[name] = append(s[name], h) }

type pinged struct{}

func (pinged) EventName() string { return "test.pinged" }

type loggingHandler struct{}

func (loggingHandler) Events() []string { return []string{"test.pinged"} }

func (loggingHandler) Handle(ctx context.Context, _ domoutbox.Event) error {
	logctx.From(ctx).Info("handled")
	return nil
}

func TestMountInjectsEventLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sub := fakeSubscriber{}
	Mount(sub, zaplogger.Wrap(zap.New(core)), observability.Nop(), loggingHandler{})

	handlers := sub["test.pinged"]
	if len(handlers) != 1 {
		t.Fatalf("want one subscription, got %d", len(handlers))
	}

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: trace.TraceID{9}, SpanID: trace.SpanID{7}})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), sc)
	if err := handlers[0](ctx, pinged{}); err != nil {
		t.Fatal(err)
	}

	entries := logs.FilterMessage("handled").All()
	if len(entries) != 1 {
		t.Fatalf("want one entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event"] != "test.pinged" || fields["trace_id"] != sc.TraceID().String() || fields["event_id"] == "" {
		t.Fatalf("unexpected fields %v", fields)
	}
}

func TestWithEventContextKeepsProvidedEventID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithEventContext(context.Background(), zaplogger.Wrap(zap.New(core)), nil, trace.TraceID{}, trace.SpanID{}, map[string]string{
		"event_id": "evt-1",
	})
	logctx.From(ctx).Info("x")

	fields := logs.All()[0].ContextMap()
	if fields["event_id"] != "evt-1" {
		t.Fatalf("want evt-1, got %v", fields["event_id"])
	}
	if _, ok := fields["trace_id"]; ok {
		t.Fatal("invalid trace ids must not be logged")
	}
}
