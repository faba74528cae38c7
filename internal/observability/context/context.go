package obscontext

import (
	"context"
	"strings"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	actorKey
)

type actor struct {
	kind string
	id   string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, strings.TrimSpace(requestID))
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithActor records who is acting. kind is "user" or "system".
func WithActor(ctx context.Context, kind, id string) context.Context {
	return context.WithValue(ctx, actorKey, actor{
		kind: strings.TrimSpace(kind),
		id:   strings.TrimSpace(id),
	})
}

func ActorFromContext(ctx context.Context) (string, string) {
	if ctx == nil {
		return "", ""
	}
	v, ok := ctx.Value(actorKey).(actor)
	if !ok {
		return "", ""
	}
	return v.kind, v.id
}
