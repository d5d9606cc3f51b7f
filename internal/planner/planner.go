// Package planner classifies a change request into the regulatory
// standards it impacts.
package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/regaudit/internal/llm"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"go.uber.org/zap"
)

// SystemPrompt instructs the model to answer with a comma-separated list.
const SystemPrompt = "You are a Regulatory Affairs expert. Analyze the user's requested change and list the medical device standards that are most likely impacted and need re-auditing. Return ONLY a comma-separated list of standards (e.g., 'IEC 62304, ISO 14971')."

// Role labels planner completion calls.
const Role = "planner"

// Planner is the plan stage handler.
type Planner struct {
	llm    llm.Completer
	logger *logging.Logger
}

// New creates a Planner.
func New(completer llm.Completer, logger *logging.Logger) *Planner {
	return &Planner{llm: completer, logger: logger}
}

// Stage implements pipeline.Handler.
func (p *Planner) Stage() pipeline.Stage {
	return pipeline.StagePlan
}

// Classify makes one completion call and parses the reply.
func (p *Planner) Classify(ctx context.Context, userRequest string) ([]string, error) {
	raw, err := p.llm.Complete(llm.WithRole(ctx, Role), SystemPrompt, userRequest)
	if err != nil {
		return nil, fmt.Errorf("planner: classify request: %w", err)
	}
	return ParseStandards(raw), nil
}

// Execute implements pipeline.Handler. It writes ImpactedStandards.
func (p *Planner) Execute(ctx context.Context, state *pipeline.State) (*pipeline.StageResult, error) {
	standards, err := p.Classify(ctx, state.UserRequest)
	if err != nil {
		return nil, err
	}
	state.ImpactedStandards = standards

	p.logger.Info(ctx, "identified impacted standards", zap.Strings("standards", standards))
	return &pipeline.StageResult{Output: strings.Join(standards, ", ")}, nil
}

// ParseStandards splits raw on commas and trims each part. Empty parts
// are kept, so the result always has one entry more than raw has commas.
func ParseStandards(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
