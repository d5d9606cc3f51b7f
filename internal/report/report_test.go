package report

import (
	"context"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_OrderAndContent(t *testing.T) {
	got := Compile("Add Bluetooth module", []string{"IEC 62304"},
		[]pipeline.Finding{{Stage: "Stage 2 Audit Loop", Details: "COMPLIANT"}})

	request := strings.Index(got, `**Trigger:** User Request - "Add Bluetooth module"`)
	scope := strings.Index(got, "**Scope:** IEC 62304")
	finding := strings.Index(got, "- COMPLIANT")

	require.NotEqual(t, -1, request)
	require.NotEqual(t, -1, scope)
	require.NotEqual(t, -1, finding)
	assert.Less(t, request, scope)
	assert.Less(t, scope, finding)
	assert.Contains(t, got, "**Date:** 2026-01-27")
}

func TestCompile_Deterministic(t *testing.T) {
	findings := []pipeline.Finding{{Details: "a"}, {Details: "b"}}
	first := Compile("req", []string{"ISO 14971", "ISO 13485"}, findings)
	second := Compile("req", []string{"ISO 14971", "ISO 13485"}, findings)
	assert.Equal(t, first, second)
}

func TestCompile_ExactTemplate(t *testing.T) {
	want := `
# Medical Device Compliance Audit Report

**Date:** 2026-01-27
**Trigger:** User Request - "r"
**Scope:** A, B

## Executive Summary
An audit was conducted on the updated technical documentation. Below are the findings from the automated specialist agents.

## Audit Findings Summary

- one
- two

## Next Actions
Review NON-COMPLIANT items and initiate CAPA (Corrective and Preventive Action) process if necessary. Update documentation before submission.
    `
	got := Compile("r", []string{"A", "B"}, []pipeline.Finding{{Details: "one"}, {Details: "two"}})
	assert.Equal(t, want, got)
}

func TestCompile_EmptyInputs(t *testing.T) {
	got := Compile("", nil, nil)
	assert.Contains(t, got, "**Scope:** \n")
	assert.Contains(t, got, "## Audit Findings Summary\n\n\n\n## Next Actions")
}

func TestCompiler_Execute(t *testing.T) {
	state := pipeline.NewState("req")
	state.ImpactedStandards = []string{"IEC 62304"}
	state.AuditFindings = []pipeline.Finding{{Details: "x"}}

	result, err := NewCompiler().Execute(context.Background(), state)
	require.NoError(t, err)
	assert.Equal(t, "Report generated successfully.", result.Output)
	assert.Equal(t, Compile("req", []string{"IEC 62304"}, state.AuditFindings), state.FinalReportContent)
}
