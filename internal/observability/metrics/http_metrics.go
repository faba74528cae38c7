package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics tracks request counts and latency per route.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics(cfg Config) *HTTPMetrics {
	return newHTTPMetrics(prometheus.DefaultRegisterer, cfg)
}

func newHTTPMetrics(registerer prometheus.Registerer, cfg Config) *HTTPMetrics {
	constLabels := prometheus.Labels{"service": cfg.ServiceName}
	if constLabels["service"] == "" {
		constLabels["service"] = "rentbill"
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "rentbill_http_requests_total",
		Help:        "HTTP requests by route and status.",
		ConstLabels: constLabels,
	}, []string{"method", "route", "status_code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:        "rentbill_http_request_duration_seconds",
		Help:        "HTTP request latency by route.",
		Buckets:     prometheus.DefBuckets,
		ConstLabels: constLabels,
	}, []string{"method", "route"})

	if err := registerer.Register(requests); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			requests = already.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	if err := registerer.Register(latency); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			latency = already.ExistingCollector.(*prometheus.HistogramVec)
		}
	}
	return &HTTPMetrics{requests: requests, latency: latency}
}

// Middleware records one observation per request.
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
