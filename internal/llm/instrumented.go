package llm

import (
	"context"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Instrumented records a span, Prometheus metrics and debug logs around
// every call. Prompt and reply bodies are logged only at trace level.
type Instrumented struct {
	next   Completer
	logger *logging.Logger
	tracer trace.Tracer
}

// NewInstrumented wraps next.
func NewInstrumented(next Completer, logger *logging.Logger, tracer trace.Tracer) *Instrumented {
	initMetrics()
	return &Instrumented{next: next, logger: logger, tracer: tracer}
}

// Complete delegates and records the outcome.
func (i *Instrumented) Complete(ctx context.Context, system, user string) (string, error) {
	role := RoleFromContext(ctx)

	ctx, span := i.tracer.Start(ctx, "llm.complete", trace.WithAttributes(
		attribute.String("llm.role", role),
		attribute.Int("llm.prompt_chars", len(system)+len(user)),
	))
	defer span.End()

	i.logger.Trace(ctx, "completion request", zap.String("role", role),
		zap.String("system", system), zap.String("user", user))

	start := time.Now()
	reply, err := i.next.Complete(ctx, system, user)
	elapsed := time.Since(start)

	callDuration.WithLabelValues(role).Observe(elapsed.Seconds())
	if err != nil {
		callsTotal.WithLabelValues(role, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		i.logger.Debug(ctx, "completion failed", zap.String("role", role),
			zap.Duration("duration", elapsed), zap.Error(err))
		return "", err
	}

	callsTotal.WithLabelValues(role, "ok").Inc()
	span.SetAttributes(attribute.Int("llm.reply_chars", len(reply)))
	i.logger.Debug(ctx, "completion finished", zap.String("role", role),
		zap.Duration("duration", elapsed), zap.Int("reply_chars", len(reply)))
	i.logger.Trace(ctx, "completion reply", zap.String("role", role), zap.String("reply", reply))
	return reply, nil
}
