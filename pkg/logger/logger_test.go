package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := &Logger{Logger: zap.New(core)}

	ctx := context.WithValue(context.Background(), RequestIdKey, "req-1")
	ctx = context.WithValue(ctx, ClientAddressKey, "10.0.0.1")
	l.Error(ctx, "vote_cast_failed", zap.String("poll_id", "p1"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "vote_cast_failed", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "10.0.0.1", fields["client_address"])
	assert.Equal(t, "p1", fields["poll_id"])
}

func TestNopLoggerDoesNotPanic(t *testing.T) {
	l := NewNop()
	l.Info(context.Background(), "noop")
	l.Infof("value %d", 1)
	l.Sync()
}
