package observability

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/rentbill/internal/config"
)

// Config holds observability configuration derived from the app config.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string

	MetricsEnabled       bool
	TracingEnabled       bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64
	MetricsInterval      time.Duration

	DBSlowQueryThreshold time.Duration
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "rentbill"
	}
	return Config{
		ServiceName:          serviceName,
		Environment:          strings.TrimSpace(cfg.Environment),
		Version:              strings.TrimSpace(cfg.AppVersion),
		LogLevel:             cfg.LogLevel,
		LogFormat:            cfg.LogFormat,
		MetricsEnabled:       cfg.MetricsEnabled,
		TracingEnabled:       cfg.TracingEnabled,
		OtelExporterEndpoint: strings.TrimSpace(cfg.OTLPEndpoint),
		OtelExporterProtocol: cfg.OTLPProtocol,
		OtelSamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),
		MetricsInterval:      time.Duration(cfg.MetricsExportEvery) * time.Second,
		DBSlowQueryThreshold: getenvDuration("DB_SLOW_QUERY_THRESHOLD", 200*time.Millisecond),
	}
}

func (c Config) Debug() bool {
	if strings.EqualFold(strings.TrimSpace(c.LogLevel), "debug") {
		return true
	}
	switch strings.ToLower(c.Environment) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}
