package infra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	gormLogger "gorm.io/gorm/logger"

	"bob/internal/config"
	"bob/internal/logger"
)

func newObservedGormLogger(cfg *config.DatabaseConfig) (*GormZapLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewGormZapLogger(cfg, zap.New(core)), logs
}

func TestParseGormLevel(t *testing.T) {
	cases := map[string]gormLogger.LogLevel{
		"silent": gormLogger.Silent,
		"error":  gormLogger.Error,
		"warn":   gormLogger.Warn,
		"info":   gormLogger.Info,
		"":       gormLogger.Warn,
		"bogus":  gormLogger.Warn,
	}
	for name, expected := range cases {
		require.Equal(t, expected, parseGormLevel(name), "level=%q", name)
	}
}

func TestGormZapLogger_SlowQuery(t *testing.T) {
	t.Run("超过配置阈值记为慢查询", func(t *testing.T) {
		gl, logs := newObservedGormLogger(&config.DatabaseConfig{LogLevel: "warn", SlowQueryMillis: 10})

		begin := time.Now().Add(-50 * time.Millisecond)
		gl.Trace(context.Background(), begin, func() (string, int64) { return "SELECT 1", 1 }, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		require.Equal(t, "SQL 慢查询", entries[0].Message)
	})

	t.Run("阈值内的查询在 warn 级别不输出", func(t *testing.T) {
		gl, logs := newObservedGormLogger(&config.DatabaseConfig{LogLevel: "warn", SlowQueryMillis: 1000})

		gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 1 }, nil)
		require.Empty(t, logs.All())
	})
}

func TestGormZapLogger_RequestIDAttached(t *testing.T) {
	gl, logs := newObservedGormLogger(&config.DatabaseConfig{LogLevel: "error"})

	ctx := logger.WithRequestID(context.Background(), "req-42")
	gl.Trace(ctx, time.Now(), func() (string, int64) { return "SELECT 1", 0 }, errors.New("connection reset"))

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "SQL 执行失败", entries[0].Message)
	require.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
}

func TestGormZapLogger_RecordNotFoundSkipped(t *testing.T) {
	gl, logs := newObservedGormLogger(&config.DatabaseConfig{LogLevel: "error"})

	gl.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, gormLogger.ErrRecordNotFound)
	require.Empty(t, logs.All())
}

func TestGormZapLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(&config.DatabaseConfig{LogLevel: "info"})

	muted := gl.LogMode(gormLogger.Silent)
	require.NotSame(t, gl, muted)
	// 原实例的级别不受影响
	require.Equal(t, gormLogger.Info, gl.level)
}
