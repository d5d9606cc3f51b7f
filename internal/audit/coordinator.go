package audit

import (
	"context"

	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
)

// Coordinator is the audit stage handler.
type Coordinator struct {
	conversation *Conversation
}

// NewCoordinator creates a Coordinator around conv.
func NewCoordinator(conv *Conversation) *Coordinator {
	return &Coordinator{conversation: conv}
}

// Stage implements pipeline.Handler.
func (c *Coordinator) Stage() pipeline.Stage {
	return pipeline.StageAudit
}

// Execute implements pipeline.Handler. It appends one finding and the full
// transcript to the state.
func (c *Coordinator) Execute(ctx context.Context, state *pipeline.State) (*pipeline.StageResult, error) {
	opening := OpeningRequest(state.ImpactedStandards, state.LoadedDocuments)

	transcript, err := c.conversation.Run(ctx, opening)
	if err != nil {
		return nil, err
	}

	summary := Extract(transcript[1:])
	state.AuditFindings = append(state.AuditFindings, pipeline.Finding{
		Stage:   FindingStageLabel,
		Details: summary,
	})
	state.ConversationLog = append(state.ConversationLog, transcript...)

	return &pipeline.StageResult{Output: summary}, nil
}
