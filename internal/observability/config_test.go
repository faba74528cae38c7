package observability

import (
	"testing"
	"time"

	"github.com/smallbiznis/rentbill/internal/config"
	"github.com/smallbiznis/rentbill/internal/observability/logger"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "0.5")
	t.Setenv("DB_SLOW_QUERY_THRESHOLD", "750ms")

	cfg := LoadConfig(config.Config{AppName: " ", Environment: "production", MetricsExportEvery: 30})
	assert.Equal(t, "rentbill", cfg.ServiceName)
	assert.Equal(t, 0.5, cfg.OtelSamplingRatio)
	assert.Equal(t, 30*time.Second, cfg.MetricsInterval)
	assert.Equal(t, 750*time.Millisecond, cfg.DBSlowQueryThreshold)
	assert.False(t, cfg.Debug())
}

func TestLoadConfigFallsBackOnBadValues(t *testing.T) {
	t.Setenv("OTEL_SAMPLING_RATIO", "lots")
	t.Setenv("DB_SLOW_QUERY_THRESHOLD", "-1s")

	cfg := LoadConfig(config.Config{})
	assert.Equal(t, 0.1, cfg.OtelSamplingRatio)
	assert.Equal(t, 200*time.Millisecond, cfg.DBSlowQueryThreshold)
}

func TestDebug(t *testing.T) {
	assert.True(t, Config{Environment: "local"}.Debug())
	assert.True(t, Config{LogLevel: "DEBUG", Environment: "production"}.Debug())
	assert.False(t, Config{Environment: "staging"}.Debug())
}

func TestNewGormLoggerFollowsDebug(t *testing.T) {
	l, ok := NewGormLogger(Config{Environment: "test"}, zap.NewNop()).(*logger.GormLogger)
	assert.True(t, ok)
	assert.NotNil(t, l)

	quiet := NewGormLogger(Config{Environment: "production", DBSlowQueryThreshold: time.Second}, zap.NewNop())
	assert.Implements(t, (*gormlogger.Interface)(nil), quiet)
}
