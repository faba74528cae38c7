package tracing

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/rentbill/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSafeAttributes(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("tenant.email", "a@b.c"),
		attribute.String("invoice.id", "1"),
	)
	require.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("invoice.id"), attrs[0].Key)
}

func TestSafeErrorMasksEmails(t *testing.T) {
	err := SafeError(errors.New("smtp rejected tenant@example.com: mailbox full"))
	assert.Equal(t, "smtp rejected [redacted] mailbox full", err.Error())
	assert.Nil(t, SafeError(nil))
}

func TestGinMiddlewareNamesSpanByRoute(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(prev)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())
	r.POST("/api/invoices/:id/pay", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/invoices/9/pay", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "HTTP POST /api/invoices/:id/pay", spans[0].Name())
}

func TestGinMiddlewareTagsResourceAndActor(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	defer otel.SetTracerProvider(prev)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "user", "landlord-1"))
		c.Next()
	})
	r.Use(GinMiddleware())
	r.POST("/api/invoices/:id/void", func(c *gin.Context) {
		_ = c.Error(errors.New("notify owner@example.com failed"))
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/invoices/42/void", nil))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	got := map[attribute.Key]string{}
	for _, kv := range spans[0].Attributes() {
		got[kv.Key] = kv.Value.Emit()
	}
	assert.Equal(t, "invoice", got["rentbill.resource"])
	assert.Equal(t, "42", got["rentbill.resource_id"])
	assert.Equal(t, "landlord-1", got["rentbill.actor.id"])
	assert.Equal(t, "500", got["http.status_code"])
	require.NotEmpty(t, spans[0].Events())
	for _, kv := range spans[0].Events()[0].Attributes {
		assert.NotContains(t, kv.Value.Emit(), "owner@example.com")
	}
}

func TestResourceFromRoute(t *testing.T) {
	assert.Equal(t, "reading", resourceFromRoute("/api/readings/:id"))
	assert.Equal(t, "room", resourceFromRoute("/api/rooms/:id/readings"))
	assert.Equal(t, "", resourceFromRoute("/health"))
	assert.Equal(t, "", resourceFromRoute("unknown"))
}
