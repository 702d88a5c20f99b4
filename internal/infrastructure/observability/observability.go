package observability

import (
	"github.com/Zhima-Mochi/minishop-ledger/internal/observability"
)

// Provider is the telemetry bundle main hands to every use case, worker and the HTTP
// shell. Pieces that are not configured stay no-ops.
type Provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics observability.Metrics
}

var _ observability.Observability = (*Provider)(nil)

type Option func(*Provider)

// WithTracer sets the span source, typically oteltrace over the SDK provider.
func WithTracer(t observability.Tracer) Option {
	return func(p *Provider) {
		if t != nil {
			p.tracer = t
		}
	}
}

func WithLogger(l observability.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the instrument set, typically prometrics.Instruments.
func WithMetrics(m observability.Metrics) Option {
	return func(p *Provider) {
		if m != nil {
			p.metrics = m
		}
	}
}

func New(opts ...Option) *Provider {
	p := &Provider{
		tracer:  observability.NopTracer(),
		logger:  observability.NopLogger(),
		metrics: observability.NopMetrics(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Tracer() observability.Tracer   { return p.tracer }
func (p *Provider) Logger() observability.Logger   { return p.logger }
func (p *Provider) Metrics() observability.Metrics { return p.metrics }
