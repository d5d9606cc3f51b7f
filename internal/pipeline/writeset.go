package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrWriteSetViolation indicates a stage wrote a blackboard field it does not own.
var ErrWriteSetViolation = errors.New("write set violation")

// Field names one blackboard field.
type Field string

const (
	FieldUserRequest        Field = "user_request"
	FieldImpactedStandards  Field = "impacted_standards"
	FieldLoadedDocuments    Field = "loaded_documents"
	FieldAuditFindings      Field = "audit_findings"
	FieldFinalReportContent Field = "final_report_content"
	FieldConversationLog    Field = "conversation_log"
)

// WriteSet lists the blackboard fields each stage may write.
type WriteSet map[Stage][]Field

// DefaultWriteSet gives every field exactly one writer. user_request has none.
func DefaultWriteSet() WriteSet {
	return WriteSet{
		StagePlan:   {FieldImpactedStandards},
		StageLoad:   {FieldLoadedDocuments},
		StageAudit:  {FieldAuditFindings, FieldConversationLog},
		StageReport: {FieldFinalReportContent},
	}
}

func (w WriteSet) allows(stage Stage, f Field) bool {
	for _, allowed := range w[stage] {
		if allowed == f {
			return true
		}
	}
	return false
}

// snapshot is a deep copy of the blackboard fields.
type snapshot struct {
	userRequest string
	standards   []string
	documents   Documents
	findings    []Finding
	report      string
	log         []Message
}

func takeSnapshot(s *State) snapshot {
	return snapshot{
		userRequest: s.UserRequest,
		standards:   append([]string(nil), s.ImpactedStandards...),
		documents:   s.LoadedDocuments.Clone(),
		findings:    append([]Finding(nil), s.AuditFindings...),
		report:      s.FinalReportContent,
		log:         append([]Message(nil), s.ConversationLog...),
	}
}

// changed returns the fields that differ between before and the current state.
func (before snapshot) changed(s *State) []Field {
	var fields []Field
	if before.userRequest != s.UserRequest {
		fields = append(fields, FieldUserRequest)
	}
	if !equalSlices(before.standards, s.ImpactedStandards) {
		fields = append(fields, FieldImpactedStandards)
	}
	if !before.documents.Equal(s.LoadedDocuments) {
		fields = append(fields, FieldLoadedDocuments)
	}
	if !equalSlices(before.findings, s.AuditFindings) {
		fields = append(fields, FieldAuditFindings)
	}
	if before.report != s.FinalReportContent {
		fields = append(fields, FieldFinalReportContent)
	}
	if !equalSlices(before.log, s.ConversationLog) {
		fields = append(fields, FieldConversationLog)
	}
	return fields
}

func equalSlices[T any](a, b []T) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	return reflect.DeepEqual(a, b)
}

// check returns ErrWriteSetViolation if stage changed a field outside its
// write set or rewrote earlier conversation log entries.
func (w WriteSet) check(stage Stage, before snapshot, s *State) error {
	var offending []string
	for _, f := range before.changed(s) {
		if !w.allows(stage, f) {
			offending = append(offending, string(f))
		}
	}
	if len(offending) > 0 {
		return fmt.Errorf("%w: stage %s wrote %s", ErrWriteSetViolation, stage, strings.Join(offending, ", "))
	}

	if len(s.ConversationLog) < len(before.log) ||
		!equalSlices(before.log, s.ConversationLog[:len(before.log)]) {
		return fmt.Errorf("%w: stage %s rewrote conversation_log", ErrWriteSetViolation, stage)
	}
	return nil
}
