package jsonclient

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// metrics holds the metric instruments for request execution.
type metrics struct {
	// requestDuration measures the total request duration in seconds.
	requestDuration metric.Float64Histogram

	// activeRequests tracks the number of in-flight requests.
	activeRequests metric.Int64UpDownCounter

	// requestErrors counts failures by error type.
	requestErrors metric.Int64Counter

	// requestTimeouts counts requests settled by the timeout timer.
	requestTimeouts metric.Int64Counter
}

// newMetrics creates and registers metric instruments.
func newMetrics(meter metric.Meter) (*metrics, error) {
	m := &metrics{}
	var err error

	m.requestDuration, err = meter.Float64Histogram(
		"jsonclient.request.duration",
		metric.WithDescription("Duration of JSON requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.005, 0.01, 0.025, 0.05, 0.075, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 7.5, 10,
		),
	)
	if err != nil {
		return nil, err
	}

	m.activeRequests, err = meter.Int64UpDownCounter(
		"jsonclient.request.active",
		metric.WithDescription("Number of in-flight JSON requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	m.requestErrors, err = meter.Int64Counter(
		"jsonclient.request.errors",
		metric.WithDescription("Number of failed JSON requests by error type"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	m.requestTimeouts, err = meter.Int64Counter(
		"jsonclient.request.timeouts",
		metric.WithDescription("Number of JSON requests settled by the timeout timer"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metrics) recordDuration(ctx context.Context, d time.Duration, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.requestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
}

func (m *metrics) recordActiveStart(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.activeRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordActiveEnd(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.activeRequests.Add(ctx, -1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordError(ctx context.Context, errorType string, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	attrs = append(attrs, attribute.String("error.type", errorType))
	m.requestErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metrics) recordTimeout(ctx context.Context, attrs []attribute.KeyValue) {
	if m == nil {
		return
	}
	m.requestTimeouts.Add(ctx, 1, metric.WithAttributes(attrs...))
}
