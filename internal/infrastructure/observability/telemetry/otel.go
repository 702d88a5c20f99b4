package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	ServiceName    string
	ServiceVersion string
	Env            string
	// Endpoint is the OTLP/HTTP collector host:port. Empty keeps traces in-process only
	// and disables log export.
	Endpoint string
	Insecure bool
}

// Providers owns the SDK providers installed globally by Setup.
type Providers struct {
	Traces *sdktrace.TracerProvider
	Logs   *sdklog.LoggerProvider

	serviceName   string
	shutdownFuncs []func(context.Context) error
}

// Setup installs the global TracerProvider and W3C propagators, and, when an endpoint is
// configured, OTLP exporters for traces and logs.
func Setup(ctx context.Context, cfg Config) (*Providers, error) {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Env),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: resource: %w", err)
	}

	p := &Providers{serviceName: cfg.ServiceName}

	traceOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	}
	if cfg.Endpoint != "" {
		exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlptracehttp.WithInsecure())
		}
		exp, err := otlptracehttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("telemetry: trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exp))
	}
	p.Traces = sdktrace.NewTracerProvider(traceOpts...)
	p.shutdownFuncs = append(p.shutdownFuncs, p.Traces.Shutdown)

	otel.SetTracerProvider(p.Traces)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if cfg.Endpoint != "" {
		exporterOpts := []otlploghttp.Option{otlploghttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlploghttp.WithInsecure())
		}
		exp, err := otlploghttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("telemetry: log exporter: %w", err), p.Shutdown(ctx))
		}
		p.Logs = sdklog.NewLoggerProvider(
			sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
			sdklog.WithResource(res),
		)
		global.SetLoggerProvider(p.Logs)
		p.shutdownFuncs = append(p.shutdownFuncs, p.Logs.Shutdown)
	}

	return p, nil
}

// ZapCore bridges zap entries into OpenTelemetry logs. It returns nil when log export is off.
func (p *Providers) ZapCore() zapcore.Core {
	if p == nil || p.Logs == nil {
		return nil
	}
	return otelzap.NewCore(p.serviceName, otelzap.WithLoggerProvider(p.Logs))
}

// Shutdown flushes and stops every provider, joining their errors.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var err error
	for i := len(p.shutdownFuncs) - 1; i >= 0; i-- {
		err = errors.Join(err, p.shutdownFuncs[i](ctx))
	}
	p.shutdownFuncs = nil
	return err
}
