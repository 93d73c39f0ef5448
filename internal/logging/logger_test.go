package logging

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log/noop"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(level zapcore.Level) (*Logger, *observer.ObservedLogs) {
	core, observed := observer.New(level)
	return &Logger{zap: zap.New(core), config: NewDefaultConfig()}, observed
}

func TestNewLogger_Stderr(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Nil(t, logger.out)
	assert.NoError(t, logger.Close())
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sprint.log")
	cfg := NewDefaultConfig()
	cfg.Output.Stderr = false
	cfg.Output.File = path
	cfg.Sampling.Enabled = false
	cfg.Level = TraceLevel

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)

	logger.Info(context.Background(), "phase selected", zap.String("phase", "define"), zap.String("api_key", "AIza-leak"))
	logger.Trace(context.Background(), "raw reply")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"phase selected"`)
	assert.Contains(t, string(data), `"service":"designsprint"`)
	assert.NotContains(t, string(data), "AIza-leak")
	assert.Contains(t, string(data), `"level":"trace"`)
	assert.Contains(t, string(data), "logging/logger_test.go")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestNewLogger_OTELBridge(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stderr = false
	cfg.Output.OTEL = true

	logger, err := NewLogger(cfg, noop.NewLoggerProvider())
	require.NoError(t, err)
	logger.Info(context.Background(), "sent to the bridge")
	assert.NoError(t, logger.Close())

	// without a provider there is nothing to write to
	_, err = NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestNewLogger_InvalidConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Stderr = false

	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestLogger_ContextAwareMethods(t *testing.T) {
	logger, observed := observedLogger(TraceLevel)
	ctx := context.Background()

	tests := []struct {
		name    string
		logFunc func()
		level   zapcore.Level
	}{
		{"trace", func() { logger.Trace(ctx, "msg", zap.Int("n", 1)) }, TraceLevel},
		{"debug", func() { logger.Debug(ctx, "msg", zap.Int("n", 1)) }, zapcore.DebugLevel},
		{"info", func() { logger.Info(ctx, "msg", zap.Int("n", 1)) }, zapcore.InfoLevel},
		{"warn", func() { logger.Warn(ctx, "msg", zap.Int("n", 1)) }, zapcore.WarnLevel},
		{"error", func() { logger.Error(ctx, "msg", zap.Int("n", 1)) }, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			observed.TakeAll()
			tt.logFunc()

			logs := observed.All()
			require.Len(t, logs, 1)
			assert.Equal(t, tt.level, logs[0].Level)
			assert.Len(t, logs[0].Context, 1)
		})
	}
}

func TestLogger_WithAndNamed(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	logger.Named("gateway").With(zap.String("provider", "gemini")).Info(context.Background(), "request sent")

	logs := observed.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "gateway", logs[0].LoggerName)
	assert.Equal(t, "gemini", logs[0].ContextMap()["provider"])
}

func TestLogger_Enabled(t *testing.T) {
	logger, _ := observedLogger(zapcore.InfoLevel)

	assert.False(t, logger.Enabled(TraceLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
}

func TestLogger_AutoInjectContextFields(t *testing.T) {
	logger, observed := observedLogger(zapcore.InfoLevel)

	ctx := WithPhase(context.Background(), "sketch")
	ctx = WithSessionID(ctx, "0190b7a2-7c1e-7000-8000-000000000001")

	logger.Info(ctx, "ideas extracted")

	logs := observed.All()
	require.Len(t, logs, 1)
	fields := logs[0].ContextMap()
	assert.Equal(t, "sketch", fields["sprint.phase"])
	assert.Equal(t, "0190b7a2-7c1e-7000-8000-000000000001", fields["session.id"])
}
