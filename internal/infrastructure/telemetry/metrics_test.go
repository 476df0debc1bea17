package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/erp/channelsync/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func manualMeterProvider(t *testing.T) (*telemetry.MeterProvider, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := telemetry.NewMeterProviderWithReader(reader, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.ForceFlush(context.Background()))
	assert.NoError(t, mp.Shutdown(context.Background()))
}

func TestCounterAndHistogram(t *testing.T) {
	mp, reader := manualMeterProvider(t)
	meter := mp.Meter("test")
	ctx := context.Background()

	counter, err := telemetry.NewCounter(meter, "sync_calls_total", "calls", "{call}")
	require.NoError(t, err)
	counter.Inc(ctx, telemetry.AttrSyncOperation.String("import_orders"))
	counter.Add(ctx, 4, telemetry.AttrSyncOperation.String("import_orders"))

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:       "sync_call_seconds",
		Unit:       "s",
		Boundaries: telemetry.DBDurationBuckets,
	})
	require.NoError(t, err)
	hist.RecordDuration(ctx, 20*time.Millisecond)
	hist.Record(ctx, 2)

	data := collect(t, reader)

	sum, ok := data["sync_calls_total"].(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(5), sum.DataPoints[0].Value)

	h, ok := data["sync_call_seconds"].(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
	assert.Equal(t, telemetry.DBDurationBuckets, h.DataPoints[0].Bounds)
}

func TestFloatGauge(t *testing.T) {
	mp, reader := manualMeterProvider(t)
	gauge, err := telemetry.NewFloatGauge(mp.Meter("test"), "lag_seconds", "lag", "s")
	require.NoError(t, err)

	gauge.Record(context.Background(), 10)
	gauge.Record(context.Background(), 3.5)

	g, ok := collect(t, reader)["lag_seconds"].(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, 3.5, g.DataPoints[0].Value)
}

func TestSyncMetrics_RecordsToReader(t *testing.T) {
	mp, reader := manualMeterProvider(t)
	sm, err := telemetry.NewSyncMetrics(telemetry.SyncMetricsConfig{Meter: mp.Meter("sync")})
	require.NoError(t, err)

	ctx := context.Background()
	channelID := uuid.New()
	sm.RecordRun(ctx, channelID, "update_order_status", telemetry.SyncOutcomePartial, 7, 2, 3*time.Second)
	sm.RecordWatermarkAge(ctx, channelID, "order_import", 90*time.Second)

	data := collect(t, reader)

	runs := data["channel_sync_runs_total"].(metricdata.Sum[int64])
	require.Len(t, runs.DataPoints, 1)
	outcome, _ := runs.DataPoints[0].Attributes.Value(telemetry.AttrSyncOutcome)
	assert.Equal(t, "partial", outcome.AsString())

	items := data["channel_sync_items_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(7), items.DataPoints[0].Value)
	skipped := data["channel_sync_skipped_total"].(metricdata.Sum[int64])
	assert.Equal(t, int64(2), skipped.DataPoints[0].Value)

	age := data["channel_sync_watermark_age_seconds"].(metricdata.Gauge[float64])
	require.Len(t, age.DataPoints, 1)
	assert.Equal(t, 90.0, age.DataPoints[0].Value)
	kind, _ := age.DataPoints[0].Attributes.Value(telemetry.AttrWatermarkKind)
	assert.Equal(t, "order_import", kind.AsString())
}
