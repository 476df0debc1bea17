package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return zap.New(core), logs
}

func withSpan(t *testing.T, ctx context.Context) context.Context {
	t.Helper()
	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	ctx, span := tp.Tracer("test").Start(ctx, "sync_run")
	t.Cleanup(func() { span.End() })
	return ctx
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	assert.NotNil(t, FromContext(nil)) //nolint:staticcheck // nil context is tolerated

	log, _ := observed()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))

	bogus := context.WithValue(context.Background(), scopeKey{}, "not a scope")
	assert.NotNil(t, FromContext(bogus))
}

func TestCorrelationHelpers(t *testing.T) {
	base, logs := observed()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, base, "req-1")
	ctx, log := WithChannelID(ctx, FromContext(ctx), "c-9")
	ctx, log = WithOperation(ctx, log, "import_orders")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "c-9", GetChannelID(ctx))
	assert.Equal(t, "import_orders", GetOperation(ctx))
	assert.Same(t, log, FromContext(ctx))

	log.Info("batch fetched")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, map[string]any{
		"request_id": "req-1",
		"channel_id": "c-9",
		"operation":  "import_orders",
	}, logs.All()[0].ContextMap())
}

func TestCorrelationHelpers_ParentUnchanged(t *testing.T) {
	parent, _ := WithChannelID(context.Background(), zap.NewNop(), "c-1")
	child, _ := WithChannelID(parent, zap.NewNop(), "c-2")

	assert.Equal(t, "c-1", GetChannelID(parent))
	assert.Equal(t, "c-2", GetChannelID(child))

	replaced := WithContext(child, zap.NewNop())
	assert.Equal(t, "c-2", GetChannelID(replaced), "attaching a logger keeps correlation values")
}

func TestGetters_Empty(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetChannelID(ctx))
	assert.Empty(t, GetOperation(ctx))
	assert.Empty(t, GetTraceID(ctx))
	assert.Empty(t, GetSpanID(ctx))
	assert.Empty(t, Fields(ctx))
}

func TestTraceIDs(t *testing.T) {
	ctx := withSpan(t, context.Background())

	assert.Len(t, GetTraceID(ctx), 32)
	assert.Len(t, GetSpanID(ctx), 16)
}

func TestFields(t *testing.T) {
	ctx := withSpan(t, context.Background())
	ctx, _ = WithRequestID(ctx, zap.NewNop(), "req-7")
	ctx, _ = WithOperation(ctx, zap.NewNop(), "export_order_status")

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range Fields(ctx) {
		f.AddTo(enc)
	}
	assert.Equal(t, "req-7", enc.Fields["request_id"])
	assert.Equal(t, "export_order_status", enc.Fields["operation"])
	assert.Equal(t, GetTraceID(ctx), enc.Fields["trace_id"])
	assert.NotContains(t, enc.Fields, "channel_id")
}

func TestL_AddsSpanFields(t *testing.T) {
	log, logs := observed()
	ctx := WithContext(withSpan(t, context.Background()), log)

	L(ctx).With(zap.Int("batch", 2)).Warn("store fault skipped")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, GetTraceID(ctx), fields["trace_id"])
	assert.Equal(t, GetSpanID(ctx), fields["span_id"])
	assert.EqualValues(t, 2, fields["batch"])
}

func TestL_Levels(t *testing.T) {
	log, logs := observed()
	ctx := WithContext(context.Background(), log)

	L(ctx).Debug("d")
	L(ctx).Info("i")
	L(ctx).Warn("w")
	L(ctx).Error("e")

	require.Equal(t, 4, logs.Len())
	for i, lvl := range []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel, zapcore.ErrorLevel} {
		assert.Equal(t, lvl, logs.All()[i].Level)
		assert.Empty(t, logs.All()[i].ContextMap(), "no span, no extra fields")
	}
}

func TestL_WithoutLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		L(context.Background()).Info("dropped")
		assert.NotNil(t, L(context.Background()).Zap())
	})
}
