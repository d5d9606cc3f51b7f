package pipeline

import (
	"context"
	"time"
)

// Gate inspects the state before a stage runs and reports warnings.
type Gate interface {
	Name() string
	Check(ctx context.Context, state *State) []Violation
}

// StandardsGate warns when planning produced no standards.
type StandardsGate struct{}

// NewStandardsGate creates a gate for the load stage.
func NewStandardsGate() *StandardsGate {
	return &StandardsGate{}
}

// Name returns the gate identifier.
func (g *StandardsGate) Name() string {
	return "standards-identified"
}

// Check reports a violation if no non-empty standard is present.
func (g *StandardsGate) Check(_ context.Context, state *State) []Violation {
	for _, s := range state.ImpactedStandards {
		if s != "" {
			return nil
		}
	}
	return []Violation{{
		Stage:       StageLoad,
		Gate:        g.Name(),
		Description: "no impacted standards identified",
		DetectedAt:  time.Now(),
	}}
}

// DocumentsGate warns when loading produced no documents.
type DocumentsGate struct{}

// NewDocumentsGate creates a gate for the audit stage.
func NewDocumentsGate() *DocumentsGate {
	return &DocumentsGate{}
}

// Name returns the gate identifier.
func (g *DocumentsGate) Name() string {
	return "documents-loaded"
}

// Check reports a violation if LoadedDocuments is empty.
func (g *DocumentsGate) Check(_ context.Context, state *State) []Violation {
	if state.LoadedDocuments.Len() > 0 {
		return nil
	}
	return []Violation{{
		Stage:       StageAudit,
		Gate:        g.Name(),
		Description: "no documents loaded",
		DetectedAt:  time.Now(),
	}}
}
