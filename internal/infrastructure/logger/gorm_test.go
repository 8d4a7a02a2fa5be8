package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func traceFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Options(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gormLog.slowThreshold)
	assert.False(t, gormLog.ignoreRecordNotFoundError)
}

func TestGormLogger_LogMode(t *testing.T) {
	gormLog, _ := newObservedGormLogger(gormlogger.Info)
	changed, ok := gormLog.LogMode(gormlogger.Warn).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gormLog.logLevel)
	assert.Equal(t, gormlogger.Warn, changed.logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("error carries the run id", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Warn)
		ctx := context.WithValue(context.Background(), RunIDKey, "run-1")

		gormLog.Trace(ctx, time.Now(), traceFn("INSERT INTO catalog_products", 0), errors.New("boom"))

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, "SQL Error", logs[0].Message)
		assert.Equal(t, "run-1", logs[0].ContextMap()["run_id"])
		assert.Equal(t, "boom", logs[0].ContextMap()["error"])
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Warn)
		gormLog.Trace(context.Background(), time.Now(), traceFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)
		assert.Empty(t, recorded.All())
	})

	t.Run("slow query warns", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gormLog.Trace(context.Background(), time.Now().Add(-time.Second), traceFn("SELECT 1", 1), nil)

		logs := recorded.All()
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
		assert.Contains(t, logs[0].Message, "SLOW SQL")
	})

	t.Run("plain statements only at info", func(t *testing.T) {
		warnLog, warnRecorded := newObservedGormLogger(gormlogger.Warn)
		warnLog.Trace(context.Background(), time.Now(), traceFn("SELECT 1", 1), nil)
		assert.Empty(t, warnRecorded.All())

		infoLog, infoRecorded := newObservedGormLogger(gormlogger.Info)
		infoLog.Trace(context.Background(), time.Now(), traceFn("SELECT 1", 1), nil)
		require.Len(t, infoRecorded.All(), 1)
		assert.Equal(t, "SQL Query", infoRecorded.All()[0].Message)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		gormLog, recorded := newObservedGormLogger(gormlogger.Silent)
		gormLog.Trace(context.Background(), time.Now(), traceFn("SELECT 1", 1), errors.New("boom"))
		assert.Empty(t, recorded.All())
	})
}

func TestGormLogger_Printf(t *testing.T) {
	gormLog, recorded := newObservedGormLogger(gormlogger.Warn)

	gormLog.Info(context.Background(), "hidden %d", 1)
	gormLog.Warn(context.Background(), "pool %s", "busy")
	gormLog.Error(context.Background(), "failed %d", 2)

	logs := recorded.All()
	require.Len(t, logs, 2)
	assert.Equal(t, "pool busy", logs[0].Message)
	assert.Equal(t, "failed 2", logs[1].Message)
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
