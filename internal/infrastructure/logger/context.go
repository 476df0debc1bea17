package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type scopeKey struct{}

// scope is the logging state carried by a context. It is copied on every
// change so contexts derived earlier keep their own view.
type scope struct {
	log       *zap.Logger
	requestID string
	channelID string
	operation string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	if s, ok := ctx.Value(scopeKey{}).(scope); ok {
		return s
	}
	return scope{}
}

func (s scope) into(ctx context.Context) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithContext attaches log to ctx. Correlation values already on ctx are kept.
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	s := scopeFrom(ctx)
	s.log = log
	return s.into(ctx)
}

// FromContext returns the logger attached to ctx, or a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	if s := scopeFrom(ctx); s.log != nil {
		return s.log
	}
	return zap.NewNop()
}

// WithRequestID records the HTTP request ID on ctx and returns the logger
// carrying it, which is also attached to the returned context.
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	s := scopeFrom(ctx)
	s.requestID = requestID
	s.log = log.With(zap.String("request_id", requestID))
	return s.into(ctx), s.log
}

// WithChannelID records the channel a sync run works on.
func WithChannelID(ctx context.Context, log *zap.Logger, channelID string) (context.Context, *zap.Logger) {
	s := scopeFrom(ctx)
	s.channelID = channelID
	s.log = log.With(zap.String("channel_id", channelID))
	return s.into(ctx), s.log
}

// WithOperation records the sync operation being run.
func WithOperation(ctx context.Context, log *zap.Logger, operation string) (context.Context, *zap.Logger) {
	s := scopeFrom(ctx)
	s.operation = operation
	s.log = log.With(zap.String("operation", operation))
	return s.into(ctx), s.log
}

// GetRequestID returns the request ID recorded on ctx.
func GetRequestID(ctx context.Context) string { return scopeFrom(ctx).requestID }

// GetChannelID returns the channel ID recorded on ctx.
func GetChannelID(ctx context.Context) string { return scopeFrom(ctx).channelID }

// GetOperation returns the sync operation recorded on ctx.
func GetOperation(ctx context.Context) string { return scopeFrom(ctx).operation }

// GetTraceID returns the trace ID of the active span, empty without one.
func GetTraceID(ctx context.Context) string {
	if sc := spanContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID of the active span, empty without one.
func GetSpanID(ctx context.Context) string {
	if sc := spanContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

func spanContext(ctx context.Context) trace.SpanContext {
	if ctx == nil {
		return trace.SpanContext{}
	}
	return trace.SpanContextFromContext(ctx)
}

// Fields returns the correlation fields recorded on ctx plus the trace ID,
// for loggers that were not derived from the context's own logger.
func Fields(ctx context.Context) []zap.Field {
	s := scopeFrom(ctx)
	var fields []zap.Field
	for _, kv := range [...]struct{ key, value string }{
		{"request_id", s.requestID},
		{"channel_id", s.channelID},
		{"operation", s.operation},
		{"trace_id", GetTraceID(ctx)},
	} {
		if kv.value != "" {
			fields = append(fields, zap.String(kv.key, kv.value))
		}
	}
	return fields
}

// ContextLogger logs through the logger attached to a context and tags
// every entry with the active trace and span.
type ContextLogger struct {
	ctx context.Context
	log *zap.Logger
}

// L returns the ContextLogger of ctx:
//
//	logger.L(ctx).Warn("Failed to end Magento session", zap.Error(err))
//
// request_id, channel_id and operation are already on the attached logger
// when they were recorded with the With* helpers.
func L(ctx context.Context) *ContextLogger {
	return &ContextLogger{ctx: ctx, log: FromContext(ctx)}
}

// With returns a child ContextLogger with extra fields.
func (cl *ContextLogger) With(fields ...zap.Field) *ContextLogger {
	return &ContextLogger{ctx: cl.ctx, log: cl.log.With(fields...)}
}

// Zap returns the underlying logger tagged with the trace and span IDs.
func (cl *ContextLogger) Zap() *zap.Logger {
	sc := spanContext(cl.ctx)
	if !sc.IsValid() {
		return cl.log
	}
	return cl.log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

func (cl *ContextLogger) Debug(msg string, fields ...zap.Field) { cl.Zap().Debug(msg, fields...) }
func (cl *ContextLogger) Info(msg string, fields ...zap.Field)  { cl.Zap().Info(msg, fields...) }
func (cl *ContextLogger) Warn(msg string, fields ...zap.Field)  { cl.Zap().Warn(msg, fields...) }
func (cl *ContextLogger) Error(msg string, fields ...zap.Field) { cl.Zap().Error(msg, fields...) }
