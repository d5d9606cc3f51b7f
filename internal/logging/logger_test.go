package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	cfg := NewDefaultConfig()

	logger, err := NewLogger(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Same(t, cfg, logger.config)
	assert.True(t, logger.Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Enabled(zapcore.DebugLevel))
}

func TestNewLogger_NoOutputAvailable(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Output.Writer = "none"
	cfg.Output.OTEL = true

	// OTEL requested but no provider supplied.
	_, err := NewLogger(cfg, nil)
	assert.Error(t, err)
}

func TestLogger_Levels(t *testing.T) {
	core, observed := observer.New(TraceLevel)
	logger := &Logger{zap: zap.New(core), config: NewDefaultConfig()}
	ctx := context.Background()

	logger.Trace(ctx, "prompt body")
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	entries := observed.All()
	require.Len(t, entries, 5)
	assert.Equal(t, TraceLevel, entries[0].Level)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[2].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[3].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[4].Level)
}

func TestLogger_InjectsContextFields(t *testing.T) {
	tl := NewTestLogger()

	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithStage(ctx, "audit")
	ctx = WithRequestID(ctx, "req-9")

	tl.Info(ctx, "stage completed", zap.Int("findings", 1))

	tl.AssertField(t, "stage completed", "run.id", "run-1")
	tl.AssertField(t, "stage completed", "stage", "audit")
	tl.AssertField(t, "stage completed", "request.id", "req-9")
	tl.AssertField(t, "stage completed", "findings", int64(1))
}

func TestContextFields_Trace(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	m := map[string]interface{}{}
	for _, f := range ContextFields(ctx) {
		if f.Type == zapcore.StringType {
			m[f.Key] = f.String
		} else {
			m[f.Key] = f.Integer
		}
	}
	assert.Equal(t, traceID.String(), m["trace_id"])
	assert.Equal(t, spanID.String(), m["span_id"])
	assert.Contains(t, m, "trace_sampled")
}

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestLogger_WithAndNamed(t *testing.T) {
	tl := NewTestLogger()
	child := tl.With(zap.String("component", "planner")).Named("stage")

	child.Info(context.Background(), "classified")

	entries := tl.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "stage", entries[0].LoggerName)
	assert.Equal(t, "planner", entries[0].ContextMap()["component"])
}

func TestFromContext(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	assert.Same(t, tl.Logger, FromContext(ctx))

	nop := FromContext(context.Background())
	require.NotNil(t, nop)
	nop.Info(context.Background(), "discarded")
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"trace", TraceLevel},
		{"TRACE", TraceLevel},
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{" warn ", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := LevelFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := LevelFromString("loud")
	assert.Error(t, err)
}
