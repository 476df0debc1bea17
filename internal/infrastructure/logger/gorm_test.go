package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

var _ gormlogger.Interface = (*GormLogger)(nil)

func observedGorm(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func statement(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_LogModeReturnsCopy(t *testing.T) {
	gl, _ := observedGorm(gormlogger.Warn)
	quiet := gl.LogMode(gormlogger.Silent).(*GormLogger)

	assert.Equal(t, gormlogger.Silent, quiet.level)
	assert.Equal(t, gormlogger.Warn, gl.level)
	assert.Equal(t, DefaultSlowSQLThreshold, quiet.slowThreshold)
}

func TestGormLogger_MessagesRespectLevel(t *testing.T) {
	gl, logs := observedGorm(gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "migrated %d tables", 3)
	gl.Warn(ctx, "deprecated column %s", "sku")
	gl.Error(ctx, "lost connection")

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "deprecated column sku", entries[0].Message)
	assert.Equal(t, "gorm", entries[0].LoggerName)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestGormLogger_Trace(t *testing.T) {
	tests := []struct {
		name    string
		level   gormlogger.LogLevel
		elapsed time.Duration
		err     error
		wantMsg string
		wantLvl zapcore.Level
	}{
		{"failure", gormlogger.Error, 0, errors.New("deadlock detected"), "sql failed", zapcore.ErrorLevel},
		{"slow", gormlogger.Warn, time.Second, nil, "slow sql", zapcore.WarnLevel},
		{"statement", gormlogger.Info, 0, nil, "sql", zapcore.DebugLevel},
		{"not found is a miss", gormlogger.Info, 0, gormlogger.ErrRecordNotFound, "sql", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gl, logs := observedGorm(tt.level)
			gl.Trace(context.Background(), time.Now().Add(-tt.elapsed),
				statement(`SELECT * FROM "sale_channels"`, 1), tt.err)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			assert.Equal(t, tt.wantMsg, entry.Message)
			assert.Equal(t, tt.wantLvl, entry.Level)
			assert.Equal(t, `SELECT * FROM "sale_channels"`, entry.ContextMap()["sql"])
			assert.EqualValues(t, 1, entry.ContextMap()["rows"])
		})
	}
}

func TestGormLogger_TraceSuppressed(t *testing.T) {
	silent, logs := observedGorm(gormlogger.Silent)
	silent.Trace(context.Background(), time.Now(), statement("SELECT 1", 0), errors.New("boom"))
	assert.Zero(t, logs.Len())

	noSlow, logs := observedGorm(gormlogger.Warn, WithSlowThreshold(0))
	noSlow.Trace(context.Background(), time.Now().Add(-time.Hour), statement("SELECT 1", 0), nil)
	assert.Zero(t, logs.Len())

	warnOnly, logs := observedGorm(gormlogger.Warn)
	warnOnly.Trace(context.Background(), time.Now(), statement("SELECT 1", 0), gormlogger.ErrRecordNotFound)
	assert.Zero(t, logs.Len())
}

func TestGormLogger_TraceCarriesSyncContext(t *testing.T) {
	gl, logs := observedGorm(gormlogger.Info)

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, zap.NewNop(), "req-42")
	ctx, _ = WithChannelID(ctx, zap.NewNop(), "0b5c7d1e")
	ctx, _ = WithOperation(ctx, zap.NewNop(), "import_orders")

	gl.Trace(ctx, time.Now(), statement(`UPDATE "sale_channels" SET order_import_watermark = $1`, 1), nil)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, "0b5c7d1e", fields["channel_id"])
	assert.Equal(t, "import_orders", fields["operation"])
	assert.NotContains(t, fields, "trace_id")
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
