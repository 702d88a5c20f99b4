package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appproduct "github.com/Zhima-Mochi/minishop-ledger/internal/application/product"
	appsettlement "github.com/Zhima-Mochi/minishop-ledger/internal/application/settlement"
	appshop "github.com/Zhima-Mochi/minishop-ledger/internal/application/shop"
	appwallet "github.com/Zhima-Mochi/minishop-ledger/internal/application/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/config"
	domproduct "github.com/Zhima-Mochi/minishop-ledger/internal/domain/product"
	domsettlement "github.com/Zhima-Mochi/minishop-ledger/internal/domain/settlement"
	domshop "github.com/Zhima-Mochi/minishop-ledger/internal/domain/shop"
	domwallet "github.com/Zhima-Mochi/minishop-ledger/internal/domain/wallet"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/settlement"
	"github.com/Zhima-Mochi/minishop-ledger/internal/infrastructure/sqlite"
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
	httppresentation "github.com/Zhima-Mochi/minishop-ledger/internal/presentation/http"
	workerpresentation "github.com/Zhima-Mochi/minishop-ledger/internal/presentation/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// stores backs every repository with one store. wallets doubles as the purchase flow's
// funds provider.
type stores struct {
	products domproduct.Repository
	shops    domshop.Repository
	wallets  domwallet.Repository
	closer   io.Closer
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.Store == config.StoreSQLite {
		db, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return stores{}, fmt.Errorf("open sqlite: %w", err)
		}
		return stores{
			products: sqlite.NewProductRepository(db),
			shops:    sqlite.NewShopRepository(db),
			wallets:  sqlite.NewWalletRepository(db),
			closer:   db,
		}, nil
	}
	return stores{
		products: memory.NewProductRepository(),
		shops:    memory.NewShopRepository(),
		wallets:  memory.NewWalletRepository(),
	}, nil
}

func settlementSink(cfg config.Config, bus *outbox.Bus) (domsettlement.Sink, io.Closer) {
	if cfg.SettlementSink == config.SinkKafka {
		sink := settlement.NewKafkaSink(settlement.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaSettlementTopic))
		return sink, sink
	}
	return settlement.NewBusSink(bus), nil
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		Env:            cfg.Env,
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
	})
	if err != nil {
		return err
	}

	var tee []zapcore.Core
	if core := providers.ZapCore(); core != nil {
		tee = append(tee, core)
	}
	baseLogger, err := zaplogger.New(zaplogger.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		LogFile: cfg.LogFile,
		Tee:     tee,
	})
	if err != nil {
		return err
	}
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger.Zap())

	systemLogger := baseLogger.WithTrace(zaplogger.SystemTraceID, zaplogger.SystemSpanID)

	tel := infraobs.New(
		infraobs.WithTracer(oteltrace.FromProvider(providers.Traces, cfg.ServiceName)),
		infraobs.WithLogger(baseLogger),
		infraobs.WithMetrics(prometrics.Instruments(prometrics.New(cfg.MetricsNamespace, ""))),
	)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}

	// In-memory event bus carrying domain events and, by default, settlement instructions.
	bus := outbox.NewBus(systemLogger, tel)
	sink, sinkCloser := settlementSink(cfg, bus)

	shopService := appshop.NewService(st.shops)
	workerpresentation.Mount(bus, systemLogger, tel, appsettlement.NewWorker(st.wallets, tel))
	bus.Start(ctx)

	handler := httppresentation.NewHandler(httppresentation.Deps{
		RegisterShop: appshop.NewRegisterShopUseCase(st.shops, bus, tel),
		Shops:        shopService,
		ListProduct:  appproduct.NewListProductUseCase(st.products, shopService, bus, tel),
		Purchase:     appproduct.NewPurchaseUseCase(st.products, st.wallets, sink, bus, tel),
		Products:     appproduct.NewService(st.products),
		CreditWallet: appwallet.NewCreditUseCase(st.wallets, tel),
		Wallets:      st.wallets,
		Metrics:      promhttp.Handler(),
	}, baseLogger, tel)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		systemLogger.Info("http_server_start",
			observability.F("addr", server.Addr),
			observability.F("store", cfg.Store),
			observability.F("settlement_sink", cfg.SettlementSink),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error", observability.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", observability.Err(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}

	bus.Stop(shutdownCtx)
	for _, c := range []io.Closer{sinkCloser, st.closer} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			systemLogger.Warn("close_failed", observability.Err(err))
		}
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		systemLogger.Warn("telemetry_shutdown_error", observability.Err(err))
	}
	return nil
}
