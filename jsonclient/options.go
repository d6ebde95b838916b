package jsonclient

import (
	"net/http"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kroma-labs/beacon-go/fault"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/beacon-go/jsonclient"

// config holds executor configuration. Defaults are applied at construction
// and the struct is not mutated afterwards.
type config struct {
	transport  Transport
	httpClient *http.Client

	logger zerolog.Logger
	errs   *fault.Factory

	serviceName string

	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	tracer         trace.Tracer
	meter          metric.Meter
	metrics        *metrics

	breaker  *BreakerConfig
	coalesce bool

	// errsSet records whether the caller injected a factory, so the
	// default can follow the configured logger.
	errsSet bool
}

// Option configures an Executor.
type Option func(*config)

// WithTransport injects a custom Transport capability. Resilience wrappers
// (breaker, coalescing) still apply around it.
func WithTransport(t Transport) Option {
	return func(c *config) {
		c.transport = t
	}
}

// WithHTTPClient uses the given *http.Client for the default transport.
// Ignored when WithTransport is also set.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithLogger sets the logger for request debug output. Default is a no-op
// logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithErrorFactory injects the error factory used for every failure the
// executor mints. Default is a factory over the configured logger.
func WithErrorFactory(f *fault.Factory) Option {
	return func(c *config) {
		c.errs = f
		c.errsSet = true
	}
}

// WithServiceName identifies this executor on spans and metrics.
func WithServiceName(name string) Option {
	return func(c *config) {
		c.serviceName = name
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *config) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

// WithBreaker wraps the transport in a circuit breaker.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *config) {
		c.breaker = &cfg
	}
}

// WithCoalescing deduplicates identical in-flight requests: concurrent
// calls with the same method, URL, headers and body share one round trip.
func WithCoalescing() Option {
	return func(c *config) {
		c.coalesce = true
	}
}

// newConfig applies options over defaults and assembles the transport chain.
func newConfig(opts ...Option) *config {
	cfg := &config{
		logger:         zerolog.Nop(),
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.errsSet {
		cfg.errs = fault.NewFactory(cfg.logger)
	}

	cfg.tracer = cfg.tracerProvider.Tracer(scope)
	cfg.meter = cfg.meterProvider.Meter(scope)
	cfg.metrics, _ = newMetrics(cfg.meter)

	if cfg.transport == nil {
		cfg.transport = NewHTTPTransport(cfg.httpClient)
	}
	if cfg.breaker != nil {
		cfg.transport = newBreakerTransport(cfg.transport, cfg.breaker, cfg.serviceName)
	}
	if cfg.coalesce {
		cfg.transport = newCoalesceTransport(cfg.transport)
	}

	return cfg
}

// baseAttributes returns the attributes shared by all telemetry.
func (c *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if c.serviceName != "" {
		attrs = append(attrs, attribute.String("jsonclient.name", c.serviceName))
	}
	return attrs
}
