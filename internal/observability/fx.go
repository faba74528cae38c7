package observability

import (
	"github.com/smallbiznis/rentbill/internal/observability/logger"
	"github.com/smallbiznis/rentbill/internal/observability/metrics"
	"github.com/smallbiznis/rentbill/internal/observability/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Module wires logging, tracing and metrics for every rentbill binary.
var Module = fx.Module("observability",
	fx.Provide(LoadConfig),
	fx.Provide(
		func(cfg Config) logger.Config {
			return logger.Config{
				ServiceName:         cfg.ServiceName,
				Environment:         cfg.Environment,
				Version:             cfg.Version,
				Level:               cfg.LogLevel,
				Format:              cfg.LogFormat,
				IncludeCaller:       true,
				IncludeStackOnError: cfg.Debug(),
			}
		},
		logger.New,
		NewGormLogger,
	),
	fx.Provide(
		func(cfg Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.TracingEnabled,
				ServiceName:      cfg.ServiceName,
				ServiceVersion:   cfg.Version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.OtelExporterEndpoint,
				ExporterProtocol: cfg.OtelExporterProtocol,
				SamplingRatio:    cfg.OtelSamplingRatio,
			}
		},
		tracing.NewProvider,
	),
	fx.Provide(
		func(cfg Config) metrics.Config {
			return metrics.Config{
				Enabled:          cfg.MetricsEnabled,
				ExporterEndpoint: cfg.OtelExporterEndpoint,
				ExporterProtocol: cfg.OtelExporterProtocol,
				ExportInterval:   cfg.MetricsInterval,
				ServiceName:      cfg.ServiceName,
				Environment:      cfg.Environment,
			}
		},
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// The tracer provider installs itself globally; the scheduler metrics are
	// a process-wide singleton that needs service labels before first use.
	fx.Invoke(func(*sdktrace.TracerProvider) {}),
	fx.Invoke(func(cfg metrics.Config) { metrics.SchedulerWithConfig(cfg) }),
)

// NewGormLogger logs every query in debug mode and only slow or failed
// queries otherwise.
func NewGormLogger(cfg Config, log *zap.Logger) gormlogger.Interface {
	gcfg := logger.DefaultGormLoggerConfig()
	if cfg.DBSlowQueryThreshold > 0 {
		gcfg.SlowThreshold = cfg.DBSlowQueryThreshold
	}
	if cfg.Debug() {
		gcfg.Level = gormlogger.Info
	}
	return logger.NewGormLogger(log, gcfg)
}
