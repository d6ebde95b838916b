package jsonclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMetrics(t *testing.T) {
	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := newMetrics(mp.Meter("test"))

	require.NoError(t, err)
	assert.NotNil(t, m.requestDuration)
	assert.NotNil(t, m.activeRequests)
	assert.NotNil(t, m.requestErrors)
	assert.NotNil(t, m.requestTimeouts)
}

func TestMetrics_NilReceiverIsInert(t *testing.T) {
	var m *metrics

	// Must not panic.
	ctx := context.Background()
	m.recordDuration(ctx, time.Second, nil)
	m.recordActiveStart(ctx, nil)
	m.recordActiveEnd(ctx, nil)
	m.recordError(ctx, "server", nil)
	m.recordTimeout(ctx, nil)
}

func TestExecute_RecordsDuration(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	transport := NewMockTransport().StubResponse(200, `{"done":true}`)
	client := New(
		WithTransport(transport),
		WithMeterProvider(mp),
		WithServiceName("metrics-test"),
	)

	_, err := client.Execute(context.Background(), NewConnection("https://api.test/v1"), nil, nil)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	var durations uint64
	for _, sm := range rm.ScopeMetrics {
		for _, inst := range sm.Metrics {
			if inst.Name != "jsonclient.request.duration" {
				continue
			}
			hist, ok := inst.Data.(metricdata.Histogram[float64])
			require.True(t, ok)
			for _, dp := range hist.DataPoints {
				durations += dp.Count
			}
		}
	}
	assert.Equal(t, uint64(1), durations)
}

func TestExecute_RecordsTimeouts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	transport := NewMockTransport().StubDelay(5 * time.Second)
	client := New(
		WithTransport(transport),
		WithMeterProvider(mp),
	)

	conn := NewConnection("https://api.test/v1")
	conn.Timeout = 20 * time.Millisecond

	_, err := client.Execute(context.Background(), conn, nil, nil)
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var timeouts int64
	for _, sm := range rm.ScopeMetrics {
		for _, inst := range sm.Metrics {
			if inst.Name != "jsonclient.request.timeouts" {
				continue
			}
			sum, ok := inst.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				timeouts += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), timeouts)
}
