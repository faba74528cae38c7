package db

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/smallbiznis/rentbill/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Dialect picks the gorm driver named by DATABASE_TYPE. Timestamps are
// stored in UTC; billing-local dates are derived in the service layer.
func Dialect(cfg config.Config) (gorm.Dialector, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}
	switch normalizedType(cfg) {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	default:
		return sqlite.Open(dsn), nil
	}
}

// DSN renders the connection string for the configured database type.
func DSN(cfg config.Config) (string, error) {
	switch normalizedType(cfg) {
	case "postgres":
		return postgresDSN(cfg), nil
	case "mysql":
		return mysqlDSN(cfg), nil
	case "sqlite":
		return sqliteDSN(cfg), nil
	default:
		return "", fmt.Errorf("unsupported %s type", cfg.DBType)
	}
}

func normalizedType(cfg config.Config) string {
	switch t := strings.ToLower(strings.TrimSpace(cfg.DBType)); t {
	case "postgresql", "pg":
		return "postgres"
	default:
		return t
	}
}

func postgresDSN(cfg config.Config) string {
	sslMode := cfg.DBSSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	parts := []string{
		"host=" + cfg.DBHost,
		"port=" + cfg.DBPort,
		"user=" + cfg.DBUser,
		"password=" + cfg.DBPassword,
		"dbname=" + cfg.DBName,
		"sslmode=" + sslMode,
		"TimeZone=UTC",
	}
	if app := strings.TrimSpace(cfg.AppName); app != "" {
		parts = append(parts, "application_name="+app)
	}
	return strings.Join(parts, " ")
}

func mysqlDSN(cfg config.Config) string {
	q := url.Values{}
	q.Set("charset", "utf8mb4")
	q.Set("parseTime", "True")
	q.Set("loc", "UTC")
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?%s",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName, q.Encode())
}

// sqliteDSN treats DATABASE_NAME as a file path; ".db" is appended when missing.
func sqliteDSN(cfg config.Config) string {
	name := cfg.DBName
	if name != ":memory:" && !strings.HasSuffix(name, ".db") {
		name += ".db"
	}
	return name + "?_foreign_keys=on"
}

func IsPostgres(cfg config.Config) bool {
	return normalizedType(cfg) == "postgres"
}
