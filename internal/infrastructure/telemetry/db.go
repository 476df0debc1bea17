package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefaultSlowQueryThreshold marks queries slower than this on spans and metrics
const DefaultSlowQueryThreshold = 200 * time.Millisecond

// DBTracingConfig configures otelgorm spans for repository queries.
type DBTracingConfig struct {
	Enabled bool
	// LogFullSQL keeps bound variables in db.statement; never enable it in production
	LogFullSQL         bool
	SlowQueryThreshold time.Duration
	DBName             string
}

// DefaultDBTracingConfig returns a disabled config with variables hidden.
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThreshold: DefaultSlowQueryThreshold,
		DBName:             "channel_sync",
	}
}

// RegisterDBTracing installs otelgorm on db and annotates each query span
// with its table, affected rows and a slow_query event past the threshold.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = DefaultSlowQueryThreshold
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	err := registerAround(db, "sync_trace", func(tx *gorm.DB, elapsed time.Duration) {
		annotateQuerySpan(tx, elapsed, cfg.SlowQueryThreshold)
	})
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold),
	)
	return nil
}

func annotateQuerySpan(tx *gorm.DB, elapsed, threshold time.Duration) {
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if elapsed > threshold {
		span.SetAttributes(attribute.Bool("db.slow_query", true))
		span.AddEvent("slow_query", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", threshold.Milliseconds()),
		))
	}
}

// DBMetricsConfig configures query and connection pool metrics.
type DBMetricsConfig struct {
	Enabled            bool
	SlowQueryThreshold time.Duration
}

// DefaultDBMetricsConfig enables metrics with the default slow threshold.
func DefaultDBMetricsConfig() DBMetricsConfig {
	return DBMetricsConfig{Enabled: true, SlowQueryThreshold: DefaultSlowQueryThreshold}
}

// DBMetrics records per-query metrics and observes the connection pool.
type DBMetrics struct {
	queryTotal     *Counter
	queryDuration  *Histogram
	slowQueryTotal *Counter
	poolReg        metric.Registration
	threshold      time.Duration
}

// NewDBMetrics creates the query instruments on meter. When sqlDB is set
// its pool statistics are observed on every collection.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig) (*DBMetrics, error) {
	m := &DBMetrics{threshold: cfg.SlowQueryThreshold}
	if m.threshold <= 0 {
		m.threshold = DefaultSlowQueryThreshold
	}

	var err error
	if m.queryTotal, err = NewCounter(meter, "db_query_total", "Database queries by operation and table", "{query}"); err != nil {
		return nil, err
	}
	if m.slowQueryTotal, err = NewCounter(meter, "db_slow_query_total", "Database queries slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	m.queryDuration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database query latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	if sqlDB != nil {
		if m.poolReg, err = observePool(meter, sqlDB); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func observePool(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, connections, maxOpen, waits)
}

// RecordQuery records one finished query.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, d time.Duration, err error) {
	attrs := []attribute.KeyValue{AttrDBOperation.String(operation), AttrDBTable.String(table)}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		attrs = append(attrs, attribute.Bool("error", true))
	}
	m.queryTotal.Inc(ctx, attrs...)
	m.queryDuration.RecordDuration(ctx, d, attrs[:2]...)
	if d > m.threshold {
		m.slowQueryTotal.Inc(ctx, attrs[:2]...)
	}
}

// Stop unregisters the pool observer.
func (m *DBMetrics) Stop() error {
	if m == nil || m.poolReg == nil {
		return nil
	}
	return m.poolReg.Unregister()
}

// RegisterDBMetrics records every query on db to the meter provider. It
// returns nil when metrics are disabled.
func RegisterDBMetrics(db *gorm.DB, mp *MeterProvider, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if !cfg.Enabled || mp == nil || !mp.IsEnabled() {
		return nil, nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(mp.Meter("db.client"), sqlDB, cfg)
	if err != nil {
		return nil, err
	}
	err = registerAround(db, "sync_metrics", func(tx *gorm.DB, elapsed time.Duration) {
		m.RecordQuery(tx.Statement.Context, operationOf(tx), tx.Statement.Table, elapsed, tx.Error)
	})
	if err != nil {
		_ = m.Stop()
		return nil, err
	}
	logger.Info("Database metrics enabled", zap.Duration("slow_query_threshold", m.threshold))
	return m, nil
}

// operationOf names the SQL verb of the statement gorm built.
func operationOf(tx *gorm.DB) string {
	verb, _, _ := strings.Cut(strings.TrimSpace(tx.Statement.SQL.String()), " ")
	switch verb = strings.ToUpper(verb); verb {
	case "SELECT", "INSERT", "UPDATE", "DELETE":
		return verb
	default:
		return "OTHER"
	}
}

type queryStartKey string

// registerAround times every gorm operation and calls after once it ends,
// before otelgorm closes the query span.
func registerAround(db *gorm.DB, name string, after func(tx *gorm.DB, elapsed time.Duration)) error {
	key := queryStartKey(name)
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, key, time.Now())
		}
	}
	done := func(tx *gorm.DB) {
		if tx.Statement.Context == nil {
			return
		}
		start, ok := tx.Statement.Context.Value(key).(time.Time)
		if !ok {
			return
		}
		after(tx, time.Since(start))
	}

	// otelgorm ends its span in "otel:after:<op>", where queries are "select".
	cb := db.Callback()
	for _, err := range []error{
		cb.Create().Before("gorm:create").Register(name+":before_create", before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register(name+":after_create", done),
		cb.Query().Before("gorm:query").Register(name+":before_query", before),
		cb.Query().After("gorm:query").Before("otel:after:select").Register(name+":after_query", done),
		cb.Update().Before("gorm:update").Register(name+":before_update", before),
		cb.Update().After("gorm:update").Before("otel:after:update").Register(name+":after_update", done),
		cb.Delete().Before("gorm:delete").Register(name+":before_delete", before),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register(name+":after_delete", done),
		cb.Row().Before("gorm:row").Register(name+":before_row", before),
		cb.Row().After("gorm:row").Before("otel:after:row").Register(name+":after_row", done),
		cb.Raw().Before("gorm:raw").Register(name+":before_raw", before),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register(name+":after_raw", done),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
