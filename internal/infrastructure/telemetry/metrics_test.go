package telemetry_test

import (
	"testing"
	"time"

	"github.com/servicebooks/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

func newManualMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })
	return provider.Meter("telemetry_test"), reader
}

func collectMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) (metricdata.Metrics, bool) {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func TestCounter(t *testing.T) {
	meter, reader := newManualMeter(t)

	counter, err := telemetry.NewCounter(meter, "invoice_issued_total", "Invoices issued", "{invoice}")
	require.NoError(t, err)

	counter.Add(t.Context(), 2, telemetry.AttrDocumentType.String("invoice"))
	counter.Inc(t.Context(), telemetry.AttrDocumentType.String("invoice"))

	m, found := collectMetric(t, reader, "invoice_issued_total")
	require.True(t, found)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(3), sum.DataPoints[0].Value)

	docType, ok := sum.DataPoints[0].Attributes.Value(telemetry.AttrDocumentType)
	require.True(t, ok)
	assert.Equal(t, "invoice", docType.AsString())
}

func TestHistogram(t *testing.T) {
	meter, reader := newManualMeter(t)

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "payment_posting_duration_seconds",
		Description: "Payment posting latency",
		Unit:        "s",
		Boundaries:  telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)

	hist.Record(t.Context(), 0.05)
	hist.RecordDuration(t.Context(), 100*time.Millisecond)

	m, found := collectMetric(t, reader, "payment_posting_duration_seconds")
	require.True(t, found)

	data, ok := m.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	dp := data.DataPoints[0]
	assert.Equal(t, uint64(2), dp.Count)
	assert.InDelta(t, 0.15, dp.Sum, 1e-9)
	assert.Equal(t, telemetry.DBDurationBuckets, dp.Bounds)
}

func TestGauge(t *testing.T) {
	meter, reader := newManualMeter(t)

	gauge, err := telemetry.NewGauge(meter, "db_pool_connections", "Pool connections by state", "{connection}")
	require.NoError(t, err)

	gauge.Record(t.Context(), 5, telemetry.AttrDBState.String("idle"))
	gauge.Record(t.Context(), 7, telemetry.AttrDBState.String("idle"))

	m, found := collectMetric(t, reader, "db_pool_connections")
	require.True(t, found)

	data, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, data.DataPoints, 1)
	assert.Equal(t, int64(7), data.DataPoints[0].Value, "gauge keeps the last recorded value")
}

func TestMeterProviderDisabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(t.Context(), telemetry.MetricsConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("anything"), "disabled provider still hands out a usable meter")
	assert.NoError(t, mp.ForceFlush(t.Context()))
	assert.NoError(t, mp.Shutdown(t.Context()))
}
