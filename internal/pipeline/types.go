// Package pipeline runs the four audit stages over a shared blackboard.
//
// A State is created once per run and handed by pointer to each stage
// handler in order. The Executor checks gates before each stage, enforces
// the single-writer rule after it, and reports progress.
package pipeline

import (
	"time"

	"github.com/google/uuid"
)

// Stage names one step of the pipeline.
type Stage string

const (
	// StagePlan classifies the request into impacted standards.
	StagePlan Stage = "plan"

	// StageLoad produces the supporting documents.
	StageLoad Stage = "load"

	// StageAudit runs the auditor conversation.
	StageAudit Stage = "audit"

	// StageReport renders the final report.
	StageReport Stage = "report"
)

// AllStages returns every stage in execution order.
func AllStages() []Stage {
	return []Stage{StagePlan, StageLoad, StageAudit, StageReport}
}

// Status is the lifecycle state of a run or a stage.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Finding is one entry of the audit findings.
type Finding struct {
	Stage   string `json:"stage"`
	Details string `json:"details"`
}

// Message is one transcript entry of the audit conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StageResult captures the outcome of one stage.
type StageResult struct {
	Stage       Stage         `json:"stage"`
	Status      Status        `json:"status"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at,omitempty"`
	Duration    time.Duration `json:"duration_ns"`
	Output      string        `json:"output,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// Violation is a gate warning recorded on the state. Violations never
// stop a run.
type Violation struct {
	Stage       Stage     `json:"stage"`
	Gate        string    `json:"gate"`
	Description string    `json:"description"`
	DetectedAt  time.Time `json:"detected_at"`
}

// State is the blackboard for one run, plus run metadata.
type State struct {
	RunID     string                 `json:"run_id"`
	StartedAt time.Time              `json:"started_at"`
	Status    Status                 `json:"status"`
	Stage     Stage                  `json:"current_stage,omitempty"`
	Results   map[Stage]*StageResult `json:"results"`

	Violations []Violation `json:"violations"`

	UserRequest        string    `json:"user_request"`
	ImpactedStandards  []string  `json:"impacted_standards"`
	LoadedDocuments    Documents `json:"loaded_documents"`
	AuditFindings      []Finding `json:"audit_findings"`
	FinalReportContent string    `json:"final_report_content"`
	ConversationLog    []Message `json:"conversation_log"`
}

// NewState creates the blackboard for a run of userRequest.
func NewState(userRequest string) *State {
	return &State{
		RunID:       uuid.NewString(),
		StartedAt:   time.Now(),
		Status:      StatusPending,
		Results:     make(map[Stage]*StageResult),
		Violations:  []Violation{},
		UserRequest: userRequest,
	}
}

// StageProgress reports progress during execution.
type StageProgress struct {
	RunID      string        `json:"run_id"`
	Stage      Stage         `json:"stage"`
	Status     Status        `json:"status"`
	Message    string        `json:"message"`
	Percentage int           `json:"percentage"`
	Duration   time.Duration `json:"duration_ns,omitempty"`
}

// ProgressCallback receives progress updates during execution.
type ProgressCallback func(progress StageProgress)
