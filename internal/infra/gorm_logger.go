package infra

import (
	"context"
	"errors"
	"time"

	"bob/internal/config"
	"bob/internal/logger"

	"go.uber.org/zap"
	gormLogger "gorm.io/gorm/logger"
)

// defaultSlowQuery 配置缺省时的慢查询阈值
const defaultSlowQuery = 200 * time.Millisecond

// GormZapLogger 把 GORM 的 SQL 日志桥接到 Zap
// Trace 行携带 request_id，可与同一请求的访问日志串联
type GormZapLogger struct {
	zl            *zap.Logger
	level         gormLogger.LogLevel
	slowThreshold time.Duration
	skipNotFound  bool
}

// NewGormZapLogger 按数据库配置构造 GORM 日志桥
// 级别与慢查询阈值取自配置，阈值非正值退回内置默认
func NewGormZapLogger(cfg *config.DatabaseConfig, zl *zap.Logger) *GormZapLogger {
	slow := defaultSlowQuery
	if cfg.SlowQueryMillis > 0 {
		slow = time.Duration(cfg.SlowQueryMillis) * time.Millisecond
	}
	return &GormZapLogger{
		zl:            zl,
		level:         parseGormLevel(cfg.LogLevel),
		slowThreshold: slow,
		skipNotFound:  true,
	}
}

// parseGormLevel 把配置中的级别名映射为 GORM 日志级别，未知值取 warn
func parseGormLevel(name string) gormLogger.LogLevel {
	switch name {
	case "silent":
		return gormLogger.Silent
	case "error":
		return gormLogger.Error
	case "info":
		return gormLogger.Info
	default:
		return gormLogger.Warn
	}
}

// LogMode 返回指定级别的副本，满足 gorm logger.Interface
func (l *GormZapLogger) LogMode(level gormLogger.LogLevel) gormLogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormZapLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Info {
		l.zl.Sugar().Infof(msg, args...)
	}
}

func (l *GormZapLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Warn {
		l.zl.Sugar().Warnf(msg, args...)
	}
}

func (l *GormZapLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormLogger.Error {
		l.zl.Sugar().Errorf(msg, args...)
	}
}

// Trace 记录单条 SQL，按错误、慢查询、常规执行三档分级
func (l *GormZapLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormLogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := make([]zap.Field, 0, 5)
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	fields = append(fields,
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	)

	switch {
	case err != nil && !(l.skipNotFound && errors.Is(err, gormLogger.ErrRecordNotFound)):
		if l.level >= gormLogger.Error {
			l.zl.Error("SQL 执行失败", append(fields, zap.Error(err))...)
		}
	case l.slowThreshold > 0 && elapsed >= l.slowThreshold:
		if l.level >= gormLogger.Warn {
			l.zl.Warn("SQL 慢查询", fields...)
		}
	case l.level >= gormLogger.Info:
		l.zl.Debug("SQL 执行", fields...)
	}
}
