// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// SyncMetrics tracks channel synchronization runs: how many ran, how many
// items they moved, how long they took and how stale each watermark is.
type SyncMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	runsTotal    *Counter
	itemsTotal   *Counter
	skippedTotal *Counter

	runDuration *Histogram

	// Gauge metrics (point-in-time values)
	watermarkAge *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	watermarkProvider WatermarkProvider
}

// WatermarkProvider exposes the watermarks of every channel for periodic
// collection without the telemetry layer depending on the channel domain.
type WatermarkProvider interface {
	// GetWatermarks returns, per channel, the last run time of each watermark kind
	GetWatermarks(ctx context.Context) (map[uuid.UUID]map[string]time.Time, error)
}

// SyncMetricsConfig holds configuration for sync metrics.
type SyncMetricsConfig struct {
	Meter             metric.Meter
	Logger            *zap.Logger
	WatermarkProvider WatermarkProvider
}

// SyncDurationBuckets are bucket boundaries for sync run duration (seconds).
var SyncDurationBuckets = []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900}

// NewSyncMetrics creates a new SyncMetrics instance.
func NewSyncMetrics(cfg SyncMetricsConfig) (*SyncMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	sm := &SyncMetrics{
		meter:             cfg.Meter,
		logger:            logger,
		stopChan:          make(chan struct{}),
		watermarkProvider: cfg.WatermarkProvider,
	}

	var err error
	sm.runsTotal, err = NewCounter(cfg.Meter,
		"channel_sync_runs_total",
		"Total number of channel sync operation runs",
		"{runs}",
	)
	if err != nil {
		return nil, err
	}

	sm.itemsTotal, err = NewCounter(cfg.Meter,
		"channel_sync_items_total",
		"Total number of items processed by sync operations",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.skippedTotal, err = NewCounter(cfg.Meter,
		"channel_sync_skipped_total",
		"Total number of items skipped because the store reported a fault",
		"{items}",
	)
	if err != nil {
		return nil, err
	}

	sm.runDuration, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "channel_sync_run_duration_seconds",
		Description: "Duration of channel sync operation runs",
		Unit:        "s",
		Boundaries:  SyncDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	sm.watermarkAge, err = NewFloatGauge(cfg.Meter,
		"channel_sync_watermark_age_seconds",
		"Seconds since each channel watermark was last advanced",
		"s",
	)
	if err != nil {
		return nil, err
	}

	return sm, nil
}

// =============================================================================
// Run Metrics
// =============================================================================

// SyncOutcome labels the outcome of a sync run.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomePartial SyncOutcome = "partial"
	SyncOutcomeFailed  SyncOutcome = "failed"
)

// RecordRun records one finished operation run with its item counts.
func (sm *SyncMetrics) RecordRun(ctx context.Context, channelID uuid.UUID, operation string, outcome SyncOutcome, processed, skipped int, d time.Duration) {
	attrs := []attribute.KeyValue{
		AttrChannelID.String(channelID.String()),
		AttrSyncOperation.String(operation),
	}
	sm.runsTotal.Inc(ctx, append(attrs, AttrSyncOutcome.String(string(outcome)))...)
	sm.runDuration.RecordDuration(ctx, d, attrs...)
	if processed > 0 {
		sm.itemsTotal.Add(ctx, int64(processed), attrs...)
	}
	if skipped > 0 {
		sm.skippedTotal.Add(ctx, int64(skipped), attrs...)
	}
}

// RecordWatermarkAge records how long ago a watermark was advanced.
func (sm *SyncMetrics) RecordWatermarkAge(ctx context.Context, channelID uuid.UUID, kind string, age time.Duration) {
	sm.watermarkAge.Record(ctx, age.Seconds(),
		AttrChannelID.String(channelID.String()),
		AttrWatermarkKind.String(kind),
	)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of the watermark gauge.
// This is non-blocking - use Stop() to stop collection.
func (sm *SyncMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	sm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go sm.runPeriodicCollection(ctx, interval)
	})
}

func (sm *SyncMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	sm.collectWatermarks(ctx)

	for {
		select {
		case <-sm.stopChan:
			sm.logger.Info("Stopping periodic sync metrics collection")
			return
		case <-ctx.Done():
			sm.logger.Info("Context cancelled, stopping periodic sync metrics collection")
			return
		case <-ticker.C:
			sm.collectWatermarks(ctx)
		}
	}
}

func (sm *SyncMetrics) collectWatermarks(ctx context.Context) {
	if sm.watermarkProvider == nil {
		sm.logger.Debug("No watermark provider configured, skipping watermark collection")
		return
	}

	watermarks, err := sm.watermarkProvider.GetWatermarks(ctx)
	if err != nil {
		sm.logger.Error("Failed to get watermarks for metrics collection", zap.Error(err))
		return
	}

	now := time.Now()
	for channelID, kinds := range watermarks {
		for kind, at := range kinds {
			sm.RecordWatermarkAge(ctx, channelID, kind, now.Sub(at))
		}
	}
}

// Stop stops the periodic collection.
func (sm *SyncMetrics) Stop() {
	sm.stopOnce.Do(func() {
		close(sm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewSyncMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
