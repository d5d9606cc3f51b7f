package http

import (
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/fyrsmithlabs/regaudit/internal/telemetry"
)

// AuditRequest is the request body for POST /api/v1/audits.
type AuditRequest struct {
	Request string `json:"request"`
}

// AuditResponse is the response body for POST /api/v1/audits.
type AuditResponse struct {
	RunID             string             `json:"run_id"`
	ImpactedStandards []string           `json:"impacted_standards"`
	Documents         pipeline.Documents `json:"documents"`
	Findings          []pipeline.Finding `json:"findings"`
	Report            string             `json:"report"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status    string                  `json:"status"`
	Version   string                  `json:"version,omitempty"`
	Runs      RunCounts               `json:"runs"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// RunCounts counts pipeline runs served since startup.
type RunCounts struct {
	InFlight  int64 `json:"in_flight"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

func newAuditResponse(state *pipeline.State) AuditResponse {
	standards := state.ImpactedStandards
	if standards == nil {
		standards = []string{}
	}
	findings := state.AuditFindings
	if findings == nil {
		findings = []pipeline.Finding{}
	}
	return AuditResponse{
		RunID:             state.RunID,
		ImpactedStandards: standards,
		Documents:         state.LoadedDocuments,
		Findings:          findings,
		Report:            state.FinalReportContent,
	}
}
