package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/domain/money"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFieldsReachZap(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := Wrap(zap.New(core)).With(observability.F("service", "ledger"))

	l.Info("purchase_committed",
		observability.F("total", money.FromUint64(30)),
		observability.Err(errors.New("boom")),
		observability.F("quantity", uint64(3)),
	)

	entries := logs.FilterMessage("purchase_committed").All()
	if len(entries) != 1 {
		t.Fatalf("want one entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["service"] != "ledger" {
		t.Fatalf("fixed field missing: %+v", ctx)
	}
	if ctx["total"] != "30" {
		t.Fatalf("stringer not encoded as string: %+v", ctx["total"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("error not encoded: %+v", ctx["error"])
	}
	if ctx["quantity"] != uint64(3) {
		t.Fatalf("quantity not encoded: %#v", ctx["quantity"])
	}
}

func TestWithTraceNormalisesUnknown(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	Wrap(zap.New(core)).WithTrace("", SystemSpanID).Info("boot")

	ctx := logs.All()[0].ContextMap()
	if ctx["trace_id"] != "unknown" || ctx["span_id"] != "system" {
		t.Fatalf("unexpected trace fields: %+v", ctx)
	}
}
