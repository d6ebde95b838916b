package poll

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for poll runs.
type metrics struct {
	// attempts counts probe invocations.
	attempts metric.Int64Counter

	// runDuration measures settled run duration in seconds, labeled by
	// outcome (resolved, timeout, retry_limit, probe_error, wake_error).
	runDuration metric.Float64Histogram
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.attempts, err = meter.Int64Counter(
		"poll.attempts",
		metric.WithDescription("Number of probe invocations"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, err
	}

	m.runDuration, err = meter.Float64Histogram(
		"poll.run.duration",
		metric.WithDescription("Duration of settled poll runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
		),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordAttempt(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.attempts.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordRun(
	ctx context.Context,
	outcome string,
	d time.Duration,
	attrs []attribute.KeyValue,
) {
	if m == nil {
		return
	}
	attrs = append(attrs, attribute.String("poll.outcome", outcome))
	m.runDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}
