package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ToolComplianceAudit is the name of the audit tool.
const ToolComplianceAudit = "compliance_audit"

type complianceAuditInput struct {
	Request string `json:"request" jsonschema:"Free-text description of the change to the medical device software"`
}

type complianceAuditOutput struct {
	RunID             string             `json:"run_id" jsonschema:"Pipeline run identifier"`
	ImpactedStandards []string           `json:"impacted_standards" jsonschema:"Standards the change impacts"`
	Findings          []pipeline.Finding `json:"findings" jsonschema:"Audit findings"`
	Report            string             `json:"report" jsonschema:"Final compliance report in Markdown"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        ToolComplianceAudit,
		Description: "Run a regulatory compliance audit (IEC 62304, ISO 14971, ISO 13485) for a proposed medical device change and return the compiled report",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args complianceAuditInput) (*mcp.CallToolResult, complianceAuditOutput, error) {
		var (
			state *pipeline.State
			err   error
		)
		done := s.metrics.begin(ctx)
		defer func() { done(state, err) }()

		request := strings.TrimSpace(args.Request)
		if request == "" {
			err = errEmptyRequest
			return nil, complianceAuditOutput{}, err
		}

		state, err = s.auditor.Run(ctx, request)
		if err != nil {
			s.logger.Warn(ctx, "compliance audit failed", zap.Error(err))
			return nil, complianceAuditOutput{}, fmt.Errorf("compliance audit failed: %w", err)
		}

		output := complianceAuditOutput{
			RunID:             state.RunID,
			ImpactedStandards: state.ImpactedStandards,
			Findings:          state.AuditFindings,
			Report:            state.FinalReportContent,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: state.FinalReportContent},
			},
		}, output, nil
	})
}
