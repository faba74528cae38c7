package tracing

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
)

var blockedAttributeKeys = map[attribute.Key]struct{}{
	"tenant.email": {},
	"tenant.name":  {},
	"http.body":    {},
}

// SafeAttributes drops attributes that may carry tenant personal data.
func SafeAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, attr := range attrs {
		if _, blocked := blockedAttributeKeys[attr.Key]; blocked {
			continue
		}
		out = append(out, attr)
	}
	return out
}

// SafeError returns an error with any "@"-bearing tokens masked.
func SafeError(err error) error {
	if err == nil {
		return nil
	}
	parts := strings.Fields(err.Error())
	for i, p := range parts {
		if strings.Contains(p, "@") {
			parts[i] = "[redacted]"
		}
	}
	return errors.New(strings.Join(parts, " "))
}

func ExtractContext(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}
