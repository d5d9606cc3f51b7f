package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrNoHandler indicates a stage has no registered handler.
var ErrNoHandler = errors.New("no handler registered")

// Handler executes one stage against the blackboard.
type Handler interface {
	Stage() Stage
	Execute(ctx context.Context, state *State) (*StageResult, error)
}

// HandlerFunc adapts a function to Handler for stage.
func HandlerFunc(stage Stage, fn func(ctx context.Context, state *State) (*StageResult, error)) Handler {
	return handlerFunc{stage: stage, fn: fn}
}

type handlerFunc struct {
	stage Stage
	fn    func(ctx context.Context, state *State) (*StageResult, error)
}

func (h handlerFunc) Stage() Stage { return h.stage }

func (h handlerFunc) Execute(ctx context.Context, state *State) (*StageResult, error) {
	return h.fn(ctx, state)
}

// Executor runs the stages in order over one State.
type Executor struct {
	handlers map[Stage]Handler
	gates    map[Stage][]Gate
	writeSet WriteSet
	progress ProgressCallback
	logger   *logging.Logger
	tracer   trace.Tracer
}

// NewExecutor creates an executor with the default write set and no handlers.
func NewExecutor(logger *logging.Logger, tracer trace.Tracer) *Executor {
	initMetrics()
	return &Executor{
		handlers: make(map[Stage]Handler),
		gates:    make(map[Stage][]Gate),
		writeSet: DefaultWriteSet(),
		logger:   logger,
		tracer:   tracer,
	}
}

// RegisterHandler registers a stage handler, replacing any earlier one.
func (e *Executor) RegisterHandler(handler Handler) {
	e.handlers[handler.Stage()] = handler
}

// RegisterGate registers a gate checked before stage runs.
func (e *Executor) RegisterGate(stage Stage, gate Gate) {
	e.gates[stage] = append(e.gates[stage], gate)
}

// SetWriteSet replaces the write set used for the single-writer check.
func (e *Executor) SetWriteSet(w WriteSet) {
	e.writeSet = w
}

// OnProgress sets the progress callback.
func (e *Executor) OnProgress(callback ProgressCallback) {
	e.progress = callback
}

// Execute runs every stage over state. On error the state is marked failed
// and the failing stage's result records the error text.
func (e *Executor) Execute(ctx context.Context, state *State) (err error) {
	ctx = logging.WithRunID(ctx, state.RunID)
	ctx, span := e.tracer.Start(ctx, "pipeline.run", trace.WithAttributes(
		attribute.String("run.id", state.RunID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.String("run.status", string(state.Status)))
		span.End()
		runsTotal.WithLabelValues(string(state.Status)).Inc()
	}()

	state.Status = StatusInProgress
	e.logger.Info(ctx, "pipeline started", zap.Int("request_chars", len(state.UserRequest)))

	stages := AllStages()
	total := len(stages)

	for i, stage := range stages {
		if err := ctx.Err(); err != nil {
			state.Status = StatusFailed
			e.logger.Warn(ctx, "pipeline cancelled", zap.String("before_stage", string(stage)))
			e.report(StageProgress{RunID: state.RunID, Stage: stage, Status: StatusFailed,
				Message: "cancelled", Percentage: (i * 100) / total})
			return err
		}

		handler, ok := e.handlers[stage]
		if !ok {
			state.Status = StatusFailed
			return fmt.Errorf("stage %s: %w", stage, ErrNoHandler)
		}

		e.checkGates(ctx, stage, state)

		state.Stage = stage
		e.report(StageProgress{
			RunID:      state.RunID,
			Stage:      stage,
			Status:     StatusInProgress,
			Message:    fmt.Sprintf("Starting stage: %s", stage),
			Percentage: (i * 100) / total,
		})

		result, err := e.runStage(ctx, handler, state)
		if err != nil {
			state.Status = StatusFailed
			e.report(StageProgress{
				RunID:      state.RunID,
				Stage:      stage,
				Status:     StatusFailed,
				Message:    err.Error(),
				Percentage: (i * 100) / total,
				Duration:   result.Duration,
			})
			return err
		}

		e.report(StageProgress{
			RunID:      state.RunID,
			Stage:      stage,
			Status:     StatusCompleted,
			Message:    fmt.Sprintf("Completed stage: %s", stage),
			Percentage: ((i + 1) * 100) / total,
			Duration:   result.Duration,
		})
	}

	state.Status = StatusCompleted
	e.logger.Info(ctx, "pipeline completed",
		zap.Duration("duration", time.Since(state.StartedAt)),
		zap.Int("violations", len(state.Violations)))
	return nil
}

// runStage executes one handler under its own span and records the result.
func (e *Executor) runStage(ctx context.Context, handler Handler, state *State) (*StageResult, error) {
	stage := handler.Stage()
	ctx = logging.WithStage(ctx, string(stage))
	ctx, span := e.tracer.Start(ctx, "pipeline.stage."+string(stage))
	defer span.End()

	before := takeSnapshot(state)
	started := time.Now()

	result, err := handler.Execute(ctx, state)
	if err == nil {
		err = e.writeSet.check(stage, before, state)
	}

	elapsed := time.Since(started)
	stageDuration.WithLabelValues(string(stage)).Observe(elapsed.Seconds())

	if result == nil {
		result = &StageResult{}
	}
	result.Stage = stage
	if result.StartedAt.IsZero() {
		result.StartedAt = started
	}
	result.CompletedAt = started.Add(elapsed)
	result.Duration = elapsed

	if err != nil {
		result.Status = StatusFailed
		result.Error = err.Error()
		state.Results[stage] = result
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.logger.Error(ctx, "stage failed", zap.Duration("duration", elapsed), zap.Error(err))
		return result, err
	}

	result.Status = StatusCompleted
	state.Results[stage] = result
	e.logger.Info(ctx, "stage completed", zap.Duration("duration", elapsed))
	return result, nil
}

// checkGates records and logs gate violations. They never block the stage.
func (e *Executor) checkGates(ctx context.Context, stage Stage, state *State) {
	for _, gate := range e.gates[stage] {
		for _, v := range gate.Check(ctx, state) {
			state.Violations = append(state.Violations, v)
			e.logger.Warn(ctx, v.Description,
				zap.String("gate", v.Gate),
				zap.String("stage", string(stage)))
		}
	}
}

func (e *Executor) report(progress StageProgress) {
	if e.progress != nil {
		e.progress(progress)
	}
}
