package mcp

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

const instrumentationName = "github.com/fyrsmithlabs/regaudit/internal/mcp"

// errEmptyRequest rejects a compliance_audit call with a blank request.
var errEmptyRequest = errors.New("invalid input: request is required")

// Outcome labels for audit calls.
const (
	outcomeCompleted = "completed"
	outcomeRejected  = "rejected"
	outcomeCancelled = "cancelled"
	outcomeFailed    = "failed"
)

// auditMetrics records compliance_audit calls served over MCP.
type auditMetrics struct {
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	findings metric.Int64Histogram
	inFlight metric.Int64UpDownCounter
}

// newAuditMetrics creates the instruments on meter. A nil meter uses the
// global meter provider. An instrument that fails to register is left nil
// and skipped when recording.
func newAuditMetrics(meter metric.Meter, logger *logging.Logger) *auditMetrics {
	if meter == nil {
		meter = otel.Meter(instrumentationName)
	}
	ctx := context.Background()
	m := &auditMetrics{}
	var err error

	m.calls, err = meter.Int64Counter(
		"regaudit.mcp.audit.calls_total",
		metric.WithDescription("compliance_audit calls by outcome and failing stage"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create audit calls counter", zap.Error(err))
	}

	// A run makes one planner call plus one call per auditor turn, so
	// buckets reach into minutes.
	m.duration, err = meter.Float64Histogram(
		"regaudit.mcp.audit.duration_seconds",
		metric.WithDescription("Wall time of compliance_audit calls"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 5, 15, 30, 60, 120, 300),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create audit duration histogram", zap.Error(err))
	}

	m.findings, err = meter.Int64Histogram(
		"regaudit.mcp.audit.findings",
		metric.WithDescription("Audit findings returned per completed call"),
		metric.WithUnit("{finding}"),
		metric.WithExplicitBucketBoundaries(0, 1, 2, 3, 5, 8),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create findings histogram", zap.Error(err))
	}

	m.inFlight, err = meter.Int64UpDownCounter(
		"regaudit.mcp.audit.in_flight",
		metric.WithDescription("compliance_audit calls currently running"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		logger.Warn(ctx, "failed to create in-flight counter", zap.Error(err))
	}
	return m
}

// begin marks a call as running and returns the func that records it.
// state may be nil when the call never reached the pipeline.
func (m *auditMetrics) begin(ctx context.Context) func(state *pipeline.State, err error) {
	start := time.Now()
	if m.inFlight != nil {
		m.inFlight.Add(ctx, 1)
	}
	return func(state *pipeline.State, err error) {
		if m.inFlight != nil {
			m.inFlight.Add(ctx, -1)
		}
		m.record(ctx, state, time.Since(start), err)
	}
}

func (m *auditMetrics) record(ctx context.Context, state *pipeline.State, elapsed time.Duration, err error) {
	attrs := []attribute.KeyValue{attribute.String("outcome", outcome(err))}
	if err != nil && state != nil && state.Stage != "" {
		attrs = append(attrs, attribute.String("stage", string(state.Stage)))
	}
	opt := metric.WithAttributes(attrs...)

	if m.calls != nil {
		m.calls.Add(ctx, 1, opt)
	}
	if m.duration != nil {
		m.duration.Record(ctx, elapsed.Seconds(), opt)
	}
	if err == nil && state != nil && m.findings != nil {
		m.findings.Record(ctx, int64(len(state.AuditFindings)))
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return outcomeCompleted
	case errors.Is(err, errEmptyRequest):
		return outcomeRejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return outcomeCancelled
	default:
		return outcomeFailed
	}
}
