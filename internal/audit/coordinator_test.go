package audit

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/regaudit/internal/llm/llmtest"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_Execute(t *testing.T) {
	completer := llmtest.New().
		On("IEC 62304", "Clause 5: COMPLIANT").
		On("ISO 14971", "Hazard H1 unmitigated: NON-COMPLIANT\nAUDIT_COMPLETE")

	coord := NewCoordinator(NewConversation(completer, logging.NewTestLogger().Logger))

	state := pipeline.NewState("Add Bluetooth module")
	state.ImpactedStandards = []string{"IEC 62304", "ISO 14971"}
	state.LoadedDocuments.Set("SRS", "srs")

	result, err := coord.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.AuditFindings, 1)
	assert.Equal(t, pipeline.Finding{
		Stage:   "Stage 2 Audit Loop",
		Details: "Hazard H1 unmitigated: NON-COMPLIANT",
	}, state.AuditFindings[0])
	assert.Equal(t, "Hazard H1 unmitigated: NON-COMPLIANT", result.Output)

	require.Len(t, state.ConversationLog, 3)
	assert.Equal(t, ManagerName, state.ConversationLog[0].Role)
	assert.Contains(t, state.ConversationLog[0].Content, "--- Document: SRS ---\nsrs")
}

func TestCoordinator_NoMarkerStillRecordsFinding(t *testing.T) {
	coord := NewCoordinator(NewConversation(llmtest.New().Default("looks fine"), logging.NewTestLogger().Logger))

	state := pipeline.NewState("req")
	_, err := coord.Execute(context.Background(), state)
	require.NoError(t, err)

	require.Len(t, state.AuditFindings, 1)
	assert.Equal(t, NoSummary, state.AuditFindings[0].Details)
	assert.Len(t, state.ConversationLog, 4)
}
