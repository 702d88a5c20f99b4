package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (l *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: observability.NopLogger(), fields: append(append([]observability.Field(nil), l.fields...), fields...)}
}

func TestFromOrFallsBack(t *testing.T) {
	fallback := &recordingLogger{Logger: observability.NopLogger()}
	if got := FromOr(context.Background(), fallback); got != fallback {
		t.Fatalf("want fallback logger, got %#v", got)
	}
	if got := FromOr(context.Background(), nil); got == nil {
		t.Fatal("want nop logger when no fallback")
	}
}

func TestEnrichStacksFields(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}
	ctx := Enrich(context.Background(), base, observability.F("request_id", "r1"))
	ctx = Enrich(ctx, base, observability.F("use_case", "product.purchase"))

	got, ok := From(ctx).(*recordingLogger)
	if !ok {
		t.Fatalf("unexpected logger type %T", From(ctx))
	}
	if len(got.fields) != 2 || got.fields[0].Key != "request_id" || got.fields[1].Key != "use_case" {
		t.Fatalf("unexpected fields: %+v", got.fields)
	}
}
