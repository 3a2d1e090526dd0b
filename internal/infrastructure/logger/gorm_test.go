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

func newObservedGormLogger(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func listingQuery() (string, int64) {
	return `SELECT * FROM "listings" WHERE status = 'ACTIVE'`, 3
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Warn)

	assert.Equal(t, gormlogger.Warn, gl.logLevel)
	assert.Equal(t, 200*time.Millisecond, gl.slowThreshold)
	assert.True(t, gl.ignoreNotFoundErrs)
}

func TestNewGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.ignoreNotFoundErrs)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(t, gormlogger.Warn)

	quieter := gl.LogMode(gormlogger.Silent)

	// The original keeps its level, LogMode returns a copy.
	assert.Equal(t, gormlogger.Warn, gl.logLevel)
	assert.Equal(t, gormlogger.Silent, quieter.(*GormLogger).logLevel)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("silent suppresses everything", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Silent)

		gl.Trace(ctx, time.Now(), listingQuery, errors.New("boom"))

		assert.Zero(t, recorded.Len())
	})

	t.Run("failure logs SQL Error", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Error)

		gl.Trace(ctx, time.Now(), listingQuery, errors.New("connection reset"))

		entries := recorded.FilterMessage("SQL Error").All()
		require.Len(t, entries, 1)
		fields := entries[0].ContextMap()
		assert.Contains(t, fields["sql"], "listings")
		assert.EqualValues(t, 3, fields["rows"])
	})

	t.Run("record not found is suppressed by default", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Error)

		gl.Trace(ctx, time.Now(), listingQuery, gormlogger.ErrRecordNotFound)

		assert.Zero(t, recorded.Len())
	})

	t.Run("record not found logs when not ignored", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Error,
			WithIgnoreRecordNotFoundError(false))

		gl.Trace(ctx, time.Now(), listingQuery, gormlogger.ErrRecordNotFound)

		assert.Len(t, recorded.FilterMessage("SQL Error").All(), 1)
	})

	t.Run("slow statement warns", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Warn,
			WithSlowThreshold(time.Millisecond))

		gl.Trace(ctx, time.Now().Add(-50*time.Millisecond), listingQuery, nil)

		require.Equal(t, 1, recorded.Len())
		assert.Equal(t, zapcore.WarnLevel, recorded.All()[0].Level)
	})

	t.Run("info level records statements at debug", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)

		gl.Trace(ctx, time.Now(), listingQuery, nil)

		entries := recorded.FilterMessage("SQL Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	})

	t.Run("request id from context is attached", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(t, gormlogger.Info)
		reqCtx, _ := WithRequestID(ctx, zap.NewNop(), "req-9")

		gl.Trace(reqCtx, time.Now(), listingQuery, nil)

		entries := recorded.FilterMessage("SQL Query").All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
		{"verbose", gormlogger.Warn},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MapGormLogLevel(tt.in), tt.in)
	}
}
