// Package events publishes pipeline lifecycle events to NATS.
//
// Events are published under:
//
//	{prefix}.runs.{run_id}.started
//	{prefix}.runs.{run_id}.stage
//	{prefix}.runs.{run_id}.completed
//	{prefix}.runs.{run_id}.failed
//
// Publishing is best effort. A failed publish is logged and never fails a run.
package events

import (
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

// Kind is the last subject token of an event.
type Kind string

const (
	KindStarted   Kind = "started"
	KindStage     Kind = "stage"
	KindCompleted Kind = "completed"
	KindFailed    Kind = "failed"
)

// Event is the JSON payload of every published message.
type Event struct {
	RunID       string          `json:"run_id"`
	Kind        Kind            `json:"kind"`
	Stage       pipeline.Stage  `json:"stage,omitempty"`
	Status      pipeline.Status `json:"status"`
	Message     string          `json:"message,omitempty"`
	Percentage  int             `json:"percentage"`
	DurationMS  int64           `json:"duration_ms,omitempty"`
	UserRequest string          `json:"user_request,omitempty"`
	Standards   []string        `json:"impacted_standards,omitempty"`
	Error       string          `json:"error,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}

// Started builds the event for a run that has just been created.
func Started(state *pipeline.State) Event {
	return Event{
		RunID:       state.RunID,
		Kind:        KindStarted,
		Status:      pipeline.StatusInProgress,
		UserRequest: state.UserRequest,
		Timestamp:   time.Now(),
	}
}

// Progress builds a stage event from an executor progress report.
func Progress(p pipeline.StageProgress) Event {
	return Event{
		RunID:      p.RunID,
		Kind:       KindStage,
		Stage:      p.Stage,
		Status:     p.Status,
		Message:    p.Message,
		Percentage: p.Percentage,
		DurationMS: p.Duration.Milliseconds(),
		Timestamp:  time.Now(),
	}
}

// Completed builds the event for a finished run.
func Completed(state *pipeline.State) Event {
	return Event{
		RunID:      state.RunID,
		Kind:       KindCompleted,
		Status:     pipeline.StatusCompleted,
		Percentage: 100,
		Standards:  state.ImpactedStandards,
		DurationMS: time.Since(state.StartedAt).Milliseconds(),
		Timestamp:  time.Now(),
	}
}

// Failed builds the event for a run that ended with err.
func Failed(state *pipeline.State, err error) Event {
	ev := Event{
		RunID:      state.RunID,
		Kind:       KindFailed,
		Stage:      state.Stage,
		Status:     pipeline.StatusFailed,
		DurationMS: time.Since(state.StartedAt).Milliseconds(),
		Timestamp:  time.Now(),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	return ev
}
