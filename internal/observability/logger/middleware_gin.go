package logger

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	obscontext "github.com/smallbiznis/rentbill/internal/observability/context"
	"go.uber.org/zap"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderActorID   = "X-Actor-Id"
)

// MiddlewareConfig controls request logging behavior.
type MiddlewareConfig struct {
	Logger          *zap.Logger
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware logs each request with correlation identifiers and safe fields.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	base := cfg.Logger
	if base == nil {
		base = zap.L()
	}
	base = base.Named("http")

	return func(c *gin.Context) {
		start := time.Now()
		requestID := ensureRequestID(c)

		ctx := obscontext.WithRequestID(c.Request.Context(), requestID)
		if actorID := strings.TrimSpace(c.GetHeader(HeaderActorID)); actorID != "" {
			ctx = obscontext.WithActor(ctx, "user", actorID)
		}
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()
		if strings.TrimSpace(route) == "" {
			route = "unknown"
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int("bytes_out", normalizeSize(c.Writer.Size())),
		}

		if lastErr := c.Errors.Last(); lastErr != nil && cfg.ErrorClassifier != nil {
			errorType, errorCode := cfg.ErrorClassifier(lastErr.Err)
			fields = append(fields,
				zap.String("error_type", errorType),
				zap.String("error_code", errorCode),
			)
		}

		logRequest(WithContext(c.Request.Context(), base), route, status, fields)
	}
}

func ensureRequestID(c *gin.Context) string {
	requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set("request_id", requestID)
	c.Header(HeaderRequestID, requestID)
	return requestID
}

func logRequest(log *zap.Logger, route string, status int, fields []zap.Field) {
	switch {
	case isProbe(route):
		log.Debug("http_request", fields...)
	case status >= http.StatusInternalServerError:
		log.Error("http_request", fields...)
	default:
		log.Info("http_request", fields...)
	}
}

func isProbe(route string) bool {
	route = strings.TrimSpace(route)
	return strings.EqualFold(route, "/metrics") || strings.EqualFold(route, "/health")
}

func normalizeSize(value int) int {
	if value < 0 {
		return 0
	}
	return value
}
