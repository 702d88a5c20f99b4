package observability

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewFallsBackToNoops(t *testing.T) {
	p := New(WithLogger(nil), WithMetrics(nil))

	ctx, span := p.Tracer().Start(context.Background(), "UC.Purchase")
	span.End()
	if ctx == nil {
		t.Fatal("nil context from no-op tracer")
	}
	p.Logger().Info("ignored")
	p.Metrics().Counter(observability.MPurchasedUnits).Add(1, observability.L("category", "tools"))
}

func TestNewWiresAdapters(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()

	p := New(
		WithLogger(zaplogger.Wrap(zap.New(core))),
		WithMetrics(prometrics.Instruments(prometrics.NewWithRegisterer(reg, "", ""))),
	)

	p.Logger().Info("use_case_done", observability.F("use_case", "shop.register"))
	if logs.FilterMessage("use_case_done").Len() != 1 {
		t.Fatal("log entry not routed to the configured logger")
	}

	p.Metrics().Counter(observability.MPurchasedUnits).Add(3, observability.L("category", "tools"))
	if n, err := testutil.GatherAndCount(reg, "purchased_units_total"); err != nil || n != 1 {
		t.Fatalf("want one purchased_units_total series, got %d %v", n, err)
	}
}
