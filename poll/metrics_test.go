package poll

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
	assert.NotNil(t, m.attempts)
	assert.NotNil(t, m.runDuration)
}

func TestMetrics_NilReceiverIsInert(t *testing.T) {
	var m *metrics

	// Must not panic.
	m.recordAttempt(context.Background(), nil)
	m.recordRun(context.Background(), "resolved", time.Second, nil)
}

func TestPoll_RecordsAttemptsAndRun(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	calls := 0
	probe := func(_ context.Context) (int, bool, error) {
		calls++
		if calls < 3 {
			return 0, false, nil
		}
		return calls, true, nil
	}

	_, err := Poll(context.Background(), probe,
		WithInterval(time.Millisecond),
		WithCeiling(2*time.Millisecond),
		WithMeterProvider(mp),
		WithName("order-status"),
	)
	require.NoError(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	require.NotEmpty(t, rm.ScopeMetrics)

	var attempts int64
	var runs uint64
	for _, sm := range rm.ScopeMetrics {
		for _, inst := range sm.Metrics {
			switch inst.Name {
			case "poll.attempts":
				sum, ok := inst.Data.(metricdata.Sum[int64])
				require.True(t, ok)
				for _, dp := range sum.DataPoints {
					attempts += dp.Value
				}
			case "poll.run.duration":
				hist, ok := inst.Data.(metricdata.Histogram[float64])
				require.True(t, ok)
				for _, dp := range hist.DataPoints {
					runs += dp.Count
				}
			}
		}
	}

	assert.Equal(t, int64(3), attempts)
	assert.Equal(t, uint64(1), runs)
}
