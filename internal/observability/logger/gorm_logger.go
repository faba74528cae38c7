package logger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"
)

type GormLoggerConfig struct {
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
}

func DefaultGormLoggerConfig() GormLoggerConfig {
	return GormLoggerConfig{
		Level:         gormlogger.Warn,
		SlowThreshold: 200 * time.Millisecond,
	}
}

// GormLogger routes gorm output through zap. Record-not-found is never
// logged: repositories translate it into nil results.
type GormLogger struct {
	base *zap.Logger
	cfg  GormLoggerConfig
}

func NewGormLogger(base *zap.Logger, cfg GormLoggerConfig) *GormLogger {
	if base == nil {
		base = zap.NewNop()
	}
	return &GormLogger{base: base.Named("gorm"), cfg: cfg}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.cfg.Level = level
	return &next
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Info, zapcore.InfoLevel, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Warn, zapcore.WarnLevel, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.message(ctx, gormlogger.Error, zapcore.ErrorLevel, msg, data)
}

func (l *GormLogger) message(ctx context.Context, min gormlogger.LogLevel, level zapcore.Level, msg string, data []interface{}) {
	if l.cfg.Level < min {
		return
	}
	if len(data) > 0 {
		msg = fmt.Sprintf(msg, data...)
	}
	if ce := WithContext(ctx, l.base).Check(level, msg); ce != nil {
		ce.Write()
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.Level <= gormlogger.Silent {
		return
	}
	if errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	var (
		level zapcore.Level
		msg   string
	)
	switch {
	case err != nil && l.cfg.Level >= gormlogger.Error:
		level, msg = zapcore.ErrorLevel, "db.query.failed"
	case l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold && l.cfg.Level >= gormlogger.Warn:
		level, msg = zapcore.WarnLevel, "db.query.slow"
	case l.cfg.Level >= gormlogger.Info:
		level, msg = zapcore.DebugLevel, "db.query"
	default:
		return
	}

	ce := WithContext(ctx, l.base).Check(level, msg)
	if ce == nil {
		return
	}
	sql, rows := fc()
	op, table := describeSQL(sql)
	fields := []zap.Field{
		zap.String("operation", op),
		zap.String("table", table),
		zap.String("sql", strings.TrimSpace(sql)),
		zap.Duration("elapsed", elapsed),
	}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	ce.Write(fields...)
}

// ParamsFilter drops bound values; tenant emails and names never reach the log.
func (l *GormLogger) ParamsFilter(_ context.Context, sql string, _ ...interface{}) (string, []interface{}) {
	return sql, nil
}

// describeSQL returns the statement verb and the first table it touches.
func describeSQL(sql string) (string, string) {
	tokens := strings.Fields(strings.TrimSpace(sql))
	op := "UNKNOWN"
	for i, tok := range tokens {
		word := strings.ToUpper(strings.Trim(tok, "();"))
		if op == "UNKNOWN" {
			switch word {
			case "SELECT", "INSERT", "UPDATE", "DELETE":
				op = word
				if word == "UPDATE" && i+1 < len(tokens) {
					return op, cleanTable(tokens[i+1])
				}
			}
			continue
		}
		if (word == "FROM" || word == "INTO") && i+1 < len(tokens) {
			return op, cleanTable(tokens[i+1])
		}
	}
	return op, ""
}

func cleanTable(tok string) string {
	return strings.Trim(tok, "`\"();")
}

var _ gormlogger.Interface = (*GormLogger)(nil)
