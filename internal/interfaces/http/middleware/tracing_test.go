package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const testChannelID = "6f1c2d3e-4b5a-4c6d-8e9f-0a1b2c3d4e5f"

// setupTestTracer sets up a test tracer provider and returns the span recorder.
func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	prev := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prev)
	})
	return sr
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

func TestTracingWithConfig_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	r := gin.New()
	assert.Empty(t, TracingWithConfig(TracingConfig{Enabled: false}))
	r.Use(TracingWithConfig(TracingConfig{Enabled: false})...)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/x", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_ChannelAttributes(t *testing.T) {
	sr := setupTestTracer(t)

	r := gin.New()
	r.Use(RequestID())
	r.Use(TracingWithConfig(DefaultTracingConfig())...)
	r.Use(func(c *gin.Context) {
		c.Set(JWTSubjectKey, "ops-bot")
		c.Next()
	})
	r.POST("/api/v1/channels/:id/sync/:operation", func(c *gin.Context) { c.Status(http.StatusOK) })

	performRequest(r, http.MethodPost, "/api/v1/channels/"+testChannelID+"/sync/import_orders",
		map[string]string{RequestIDHeader: "req-42"})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spanAttrs(spans[0])
	assert.Equal(t, "req-42", attrs["request_id"].AsString())
	assert.Equal(t, testChannelID, attrs["channel_id"].AsString())
	assert.Equal(t, "import_orders", attrs["sync.operation"].AsString())
	assert.Equal(t, "ops-bot", attrs["subject"].AsString())
}

func TestTracing_IgnoresMalformedChannelID(t *testing.T) {
	sr := setupTestTracer(t)

	r := gin.New()
	r.Use(TracingWithConfig(DefaultTracingConfig())...)
	r.POST("/api/v1/channels/:id/test-connection", func(c *gin.Context) { c.Status(http.StatusOK) })

	performRequest(r, http.MethodPost, "/api/v1/channels/not-a-uuid/test-connection", nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	_, ok := spanAttrs(spans[0])["channel_id"]
	assert.False(t, ok)
}

func TestSpanErrorMarker(t *testing.T) {
	tests := []struct {
		status  int
		wantErr bool
		message string
	}{
		{http.StatusOK, false, ""},
		{http.StatusNotFound, true, "Not Found"},
		{http.StatusConflict, true, "Conflict"},
		{http.StatusBadGateway, true, ""},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			sr := setupTestTracer(t)

			r := gin.New()
			r.Use(TracingWithConfig(DefaultTracingConfig())...)
			r.Use(SpanErrorMarker())
			r.GET("/x", func(c *gin.Context) { c.Status(tt.status) })

			performRequest(r, http.MethodGet, "/x", nil)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			if tt.wantErr {
				assert.Equal(t, codes.Error, spans[0].Status().Code)
				if tt.message != "" {
					assert.Equal(t, tt.message, spans[0].Status().Description)
				}
			} else {
				assert.NotEqual(t, codes.Error, spans[0].Status().Code)
			}
		})
	}
}
