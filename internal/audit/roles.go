// Package audit runs the multi-auditor review conversation.
//
// A Conversation is a round-robin loop over a fixed roster: the compliance
// manager opens with the audit request, then each specialist replies with
// the full transcript in view. The loop ends when the turn budget is spent
// or a generated turn contains the completion sentinel.
package audit

import "strings"

// Role is one conversation participant.
type Role struct {
	Name         string
	SystemPrompt string

	// Terminator roles never call the model. Their turns are empty.
	Terminator bool
}

// Participant names.
const (
	ManagerName       = "Compliance_Manager"
	IEC62304Name      = "IEC62304_Auditor"
	ISO14971Name      = "ISO14971_Auditor"
	ISO13485Name      = "ISO13485_Auditor"
	CompletionMarker  = "AUDIT_COMPLETE"
	NoSummary         = "No summary found."
	FindingStageLabel = "Stage 2 Audit Loop"
)

// Manager posts the opening request and terminates the audit.
var Manager = Role{
	Name:         ManagerName,
	SystemPrompt: "A human compliance manager overseeing the audit process. Terminate chat when the audit is complete and findings are summarized.",
	Terminator:   true,
}

// IEC62304Auditor reviews the software lifecycle.
var IEC62304Auditor = Role{
	Name: IEC62304Name,
	SystemPrompt: strings.Join([]string{
		"You are an expert IEC 62304 Medical Device Software auditor.",
		"Your job is to review provided documentation against standard clauses 5-9.",
		"Identify gaps where documents do not meet the standard.",
		"Ensure traceability exists between requirements and risks.",
		"If satisfied, state COMPLIANT. If not, explicitly state NON-COMPLIANT and the reason.",
	}, "\n"),
}

// ISO14971Auditor reviews risk management.
var ISO14971Auditor = Role{
	Name: ISO14971Name,
	SystemPrompt: strings.Join([]string{
		"You are an expert ISO 14971 Risk Management auditor.",
		"Review the provided Risk Management File and ensure that new features identified in documentation have corresponding risk assessments.",
		"Ensure mitigations are verified.",
	}, "\n"),
}

// ISO13485Auditor reviews the quality management system.
var ISO13485Auditor = Role{
	Name: ISO13485Name,
	SystemPrompt: strings.Join([]string{
		"You are an expert ISO 13485 Quality Management System auditor.",
		"Review documentation for compliance with QMS requirements in clause 4-8.",
		"Verify that proper procedures are followed for medical device development.",
		"If satisfied, state COMPLIANT. If not, explicitly state NON-COMPLIANT and the reason.",
	}, "\n"),
}

// DefaultRoster returns the speaking order: manager first, then every specialist.
func DefaultRoster() []Role {
	return []Role{Manager, IEC62304Auditor, ISO14971Auditor, ISO13485Auditor}
}
