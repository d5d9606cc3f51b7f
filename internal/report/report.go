// Package report renders the final compliance report.
package report

import (
	"context"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

// Date is printed on every report. It is fixed so that output is reproducible.
const Date = "2026-01-27"

// Compile renders the report. It reads no clock and keeps no state, so the
// same inputs always produce the same bytes.
func Compile(userRequest string, standards []string, findings []pipeline.Finding) string {
	lines := make([]string, len(findings))
	for i, f := range findings {
		lines[i] = "- " + f.Details
	}

	var b strings.Builder
	b.WriteString("\n# Medical Device Compliance Audit Report\n\n")
	b.WriteString("**Date:** " + Date + "\n")
	b.WriteString("**Trigger:** User Request - \"" + userRequest + "\"\n")
	b.WriteString("**Scope:** " + strings.Join(standards, ", ") + "\n\n")
	b.WriteString("## Executive Summary\n")
	b.WriteString("An audit was conducted on the updated technical documentation. Below are the findings from the automated specialist agents.\n\n")
	b.WriteString("## Audit Findings Summary\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n## Next Actions\n")
	b.WriteString("Review NON-COMPLIANT items and initiate CAPA (Corrective and Preventive Action) process if necessary. Update documentation before submission.\n    ")
	return b.String()
}

// Compiler is the report stage handler.
type Compiler struct{}

// NewCompiler creates a Compiler.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Stage implements pipeline.Handler.
func (c *Compiler) Stage() pipeline.Stage {
	return pipeline.StageReport
}

// Execute implements pipeline.Handler. It writes FinalReportContent.
func (c *Compiler) Execute(_ context.Context, state *pipeline.State) (*pipeline.StageResult, error) {
	state.FinalReportContent = Compile(state.UserRequest, state.ImpactedStandards, state.AuditFindings)
	return &pipeline.StageResult{Output: "Report generated successfully."}, nil
}
