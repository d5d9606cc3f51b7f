// Package logging provides structured logging with OpenTelemetry integration.
//
// Logger wraps Zap with:
//   - a Trace level below Debug, used for full prompt and reply bodies
//   - stdout/stderr output plus an optional OpenTelemetry bridge
//   - context field injection (trace_id, run.id, stage, request.id)
//   - key and pattern based secret redaction
//   - sampling below error level
//
// Create a logger from config and carry run identity in the context:
//
//	logger, err := logging.NewLogger(cfg, otelProvider)
//	if err != nil {
//	    return err
//	}
//	defer logger.Sync()
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "stage completed", zap.Duration("duration", d))
//
// Use TestLogger in tests:
//
//	tl := logging.NewTestLogger()
//	tl.AssertLogged(t, zapcore.WarnLevel, "technical specification not found")
package logging
