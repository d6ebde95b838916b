package poll

import (
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kroma-labs/beacon-go/fault"
)

// scope is the instrumentation scope name for OpenTelemetry.
const scope = "github.com/kroma-labs/beacon-go/poll"

// Policy governs one poll run. Use DefaultPolicy for the defaults, or build
// one through the With* options.
type Policy struct {
	// Timeout bounds the whole run. Zero means unbounded (the caller's
	// context is then the only limit).
	Timeout time.Duration

	// Floor and Ceiling clamp the inter-attempt delay.
	// Defaults: 0 and 10s.
	Floor   time.Duration
	Ceiling time.Duration

	// Interval is the base delay unit. Default: 250ms.
	Interval time.Duration

	// RetryLimit caps retry decisions. Zero or negative means unlimited.
	RetryLimit int

	// Wake, when set, replaces wall-clock backoff: the next attempt runs
	// when the external event fires and the attempt counter stays put.
	Wake WakeFunc
}

// DefaultPolicy returns the default run policy.
func DefaultPolicy() Policy {
	return Policy{
		Interval: DefaultInterval,
		Ceiling:  DefaultCeiling,
	}
}

// config holds run configuration, fixed once Poll starts.
type config struct {
	policy Policy

	logger zerolog.Logger
	errs   *fault.Factory

	name string

	meterProvider metric.MeterProvider
	metrics       *metrics

	errsSet bool
}

// Option configures a poll run.
type Option func(*config)

// WithPolicy replaces the whole policy. Later options still override
// individual fields.
func WithPolicy(p Policy) Option {
	return func(c *config) {
		c.policy = p
	}
}

// WithTimeout bounds the whole run.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.policy.Timeout = d
	}
}

// WithFloor sets the minimum inter-attempt delay.
func WithFloor(d time.Duration) Option {
	return func(c *config) {
		c.policy.Floor = d
	}
}

// WithCeiling sets the maximum inter-attempt delay.
func WithCeiling(d time.Duration) Option {
	return func(c *config) {
		c.policy.Ceiling = d
	}
}

// WithInterval sets the base delay unit.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		c.policy.Interval = d
	}
}

// WithRetryLimit caps the number of retry decisions.
func WithRetryLimit(n int) Option {
	return func(c *config) {
		c.policy.RetryLimit = n
	}
}

// WithWake drives retry cadence from an external event source instead of
// wall-clock backoff.
func WithWake(w WakeFunc) Option {
	return func(c *config) {
		c.policy.Wake = w
	}
}

// WithLogger sets the logger for attempt debug output. Default is a no-op
// logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithErrorFactory injects the error factory used for run failures.
// Default is a factory over the configured logger.
func WithErrorFactory(f *fault.Factory) Option {
	return func(c *config) {
		c.errs = f
		c.errsSet = true
	}
}

// WithName identifies this poller on metrics.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// WithMeterProvider overrides the global meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = mp
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		policy:        DefaultPolicy(),
		logger:        zerolog.Nop(),
		meterProvider: otel.GetMeterProvider(),
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.errsSet {
		cfg.errs = fault.NewFactory(cfg.logger)
	}
	if cfg.policy.Interval <= 0 {
		cfg.policy.Interval = DefaultInterval
	}
	if cfg.policy.Ceiling <= 0 {
		cfg.policy.Ceiling = DefaultCeiling
	}

	cfg.metrics, _ = newMetrics(cfg.meterProvider.Meter(scope))

	return cfg
}

// baseAttributes returns the attributes shared by all telemetry.
func (c *config) baseAttributes() []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if c.name != "" {
		attrs = append(attrs, attribute.String("poll.name", c.name))
	}
	return attrs
}
