package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	NodeID        int64
	HTTPAddr      string
	RedisAddr     string
	SchedulerJobs string

	LogLevel  string
	LogFormat string

	OTLPEndpoint       string
	OTLPProtocol       string
	MetricsEnabled     bool
	TracingEnabled     bool
	MetricsExportEvery int

	SMTP SMTPConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool
}

type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Enabled reports whether outbound mail is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:            getenv("APP_SERVICE", "rentbill"),
		AppVersion:         getenv("APP_VERSION", "0.1.0"),
		Environment:        getenv("ENVIRONMENT", "development"),
		NodeID:             int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),
		HTTPAddr:           getenv("HTTP_ADDR", ":8080"),
		RedisAddr:          strings.TrimSpace(getenv("REDIS_ADDR", "")),
		SchedulerJobs:      getenv("SCHEDULER_JOBS", ""),
		LogLevel:           strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getenv("LOG_FORMAT", "json")),
		OTLPEndpoint:       getenv("OTLP_ENDPOINT", "localhost:4317"),
		OTLPProtocol:       strings.ToLower(getenv("OTLP_PROTOCOL", "grpc")),
		MetricsEnabled:     getenvBool("OTEL_METRICS_ENABLED", false),
		TracingEnabled:     getenvBool("OTEL_TRACING_ENABLED", false),
		MetricsExportEvery: getenvInt("OTEL_METRICS_INTERVAL_SECONDS", 30),
		SMTP: SMTPConfig{
			Host:      strings.TrimSpace(getenv("SMTP_HOST", "")),
			Port:      getenvInt("SMTP_PORT", 587),
			Username:  getenv("SMTP_USERNAME", ""),
			Password:  getenv("SMTP_PASSWORD", ""),
			FromEmail: strings.TrimSpace(getenv("SMTP_FROM_EMAIL", "")),
			FromName:  getenv("SMTP_FROM_NAME", "Rentbill"),
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "rentbill"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", true),
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}
