package tracing

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/rentbill/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rentbill/http"

// GinMiddleware opens a server span per request. The span is renamed to the
// matched route once the handler chain has run.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer(tracerName)
	return func(c *gin.Context) {
		method := strings.ToUpper(c.Request.Method)
		ctx := ExtractContext(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		ctx = withRequestBaggage(ctx)

		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(requestAttributes(c, route)...)...)

		if c.Writer.Status() >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				if safe := SafeError(last.Err); safe != nil {
					span.RecordError(safe)
				}
			}
			span.SetStatus(codes.Error, "request error")
		}
	}
}

func withRequestBaggage(ctx context.Context) context.Context {
	requestID := obscontext.RequestIDFromContext(ctx)
	if requestID == "" {
		return ctx
	}
	member, err := baggage.NewMember("request_id", requestID)
	if err != nil {
		return ctx
	}
	bag, err := baggage.New(member)
	if err != nil {
		return ctx
	}
	return baggage.ContextWithBaggage(ctx, bag)
}

func requestAttributes(c *gin.Context, route string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", c.Request.Method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", c.Writer.Status()),
	}
	ctx := c.Request.Context()
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		attrs = append(attrs, attribute.String("request_id", requestID))
	}
	if kind, id := obscontext.ActorFromContext(ctx); id != "" {
		attrs = append(attrs,
			attribute.String("rentbill.actor.kind", kind),
			attribute.String("rentbill.actor.id", id),
		)
	}
	if resource := resourceFromRoute(route); resource != "" {
		attrs = append(attrs, attribute.String("rentbill.resource", resource))
		if id := c.Param("id"); id != "" {
			attrs = append(attrs, attribute.String("rentbill.resource_id", id))
		}
	}
	return attrs
}

// resourceFromRoute maps "/api/invoices/:id/pay" to "invoice".
func resourceFromRoute(route string) string {
	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) < 2 || parts[0] != "api" {
		return ""
	}
	switch parts[1] {
	case "invoices":
		return "invoice"
	case "readings":
		return "reading"
	case "rooms":
		return "room"
	case "buildings":
		return "building"
	}
	return ""
}
