package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })
	return sr
}

func spanAttr(span sdktrace.ReadOnlySpan, key string) (string, bool) {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestTracingWithConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("records a span with correlation attributes", func(t *testing.T) {
		sr := setupSpanRecorder(t)
		tenantID := uuid.New().String()
		userID := uuid.New().String()

		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set("request_id", "req-1")
			c.Set(JWTTenantIDKey, tenantID)
			c.Set(JWTUserIDKey, userID)
			c.Next()
		})
		r.Use(TracingWithConfig(TracingConfig{ServiceName: "servicebooks", Enabled: true}))
		r.GET("/invoices/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/"+uuid.New().String(), nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)

		got, _ := spanAttr(spans[0], "request_id")
		assert.Equal(t, "req-1", got)
		got, _ = spanAttr(spans[0], "tenant_id")
		assert.Equal(t, tenantID, got)
		got, _ = spanAttr(spans[0], "user_id")
		assert.Equal(t, userID, got)
		assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	})

	t.Run("marks error responses on the span", func(t *testing.T) {
		sr := setupSpanRecorder(t)

		r := gin.New()
		r.Use(TracingWithConfig(TracingConfig{ServiceName: "servicebooks", Enabled: true}))
		r.GET("/invoices/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices/"+uuid.New().String(), nil))

		spans := sr.Ended()
		require.Len(t, spans, 1)
		assert.Equal(t, codes.Error, spans[0].Status().Code)
		status, ok := spanAttr(spans[0], "http.status_code")
		assert.True(t, ok)
		assert.Equal(t, "404", status)
	})

	t.Run("ignores a non-UUID tenant header", func(t *testing.T) {
		sr := setupSpanRecorder(t)

		r := gin.New()
		r.Use(TracingWithConfig(TracingConfig{ServiceName: "servicebooks", Enabled: true}))
		r.GET("/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/invoices", nil)
		req.Header.Set(TenantHeaderKey, "drop table invoices")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		spans := sr.Ended()
		require.Len(t, spans, 1)
		_, ok := spanAttr(spans[0], "tenant_id")
		assert.False(t, ok)
	})

	t.Run("disabled tracing records nothing", func(t *testing.T) {
		sr := setupSpanRecorder(t)

		r := gin.New()
		r.Use(TracingWithConfig(TracingConfig{ServiceName: "servicebooks", Enabled: false}))
		r.GET("/invoices", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/invoices", nil))

		assert.Empty(t, sr.Ended())
	})
}
