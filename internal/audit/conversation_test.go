package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/regaudit/internal/llm/llmtest"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specialists() *llmtest.Scripted {
	return llmtest.New().
		On("IEC 62304 Medical Device Software auditor", "IEC: COMPLIANT").
		On("ISO 14971 Risk Management auditor", "ISO14971: gaps in RMF").
		On("ISO 13485 Quality Management System auditor", "ISO13485: COMPLIANT")
}

func roles(transcript []pipeline.Message) []string {
	out := make([]string, len(transcript))
	for i, m := range transcript {
		out[i] = m.Role
	}
	return out
}

func TestConversation_DefaultBudgetGivesEachSpecialistOneTurn(t *testing.T) {
	completer := specialists()
	conv := NewConversation(completer, logging.NewTestLogger().Logger)

	transcript, err := conv.Run(context.Background(), "opening AUDIT_COMPLETE")
	require.NoError(t, err)

	assert.Equal(t, []string{ManagerName, IEC62304Name, ISO14971Name, ISO13485Name}, roles(transcript))
	assert.Equal(t, "opening AUDIT_COMPLETE", transcript[0].Content, "opening quotes the marker but does not terminate")
	assert.Len(t, completer.Calls(), 3)
}

func TestConversation_StopsAtFirstMarker(t *testing.T) {
	completer := llmtest.New().
		On("IEC 62304", "All good. AUDIT_COMPLETE").
		Default("should not be called")
	conv := NewConversation(completer, logging.NewTestLogger().Logger, WithMaxRounds(10))

	transcript, err := conv.Run(context.Background(), "open")
	require.NoError(t, err)

	assert.Len(t, transcript, 2)
	assert.Len(t, completer.Calls(), 1)
}

func TestConversation_RoundRobinWithTerminator(t *testing.T) {
	completer := specialists()
	conv := NewConversation(completer, logging.NewTestLogger().Logger, WithMaxRounds(7))

	transcript, err := conv.Run(context.Background(), "open")
	require.NoError(t, err)

	assert.Equal(t, []string{
		ManagerName, IEC62304Name, ISO14971Name, ISO13485Name,
		ManagerName, IEC62304Name, ISO14971Name,
	}, roles(transcript))
	assert.Empty(t, transcript[4].Content, "terminator turns are empty")
	assert.Len(t, completer.Calls(), 5, "terminator turns never call the model")
}

func TestConversation_BudgetOfOneIsOpeningOnly(t *testing.T) {
	completer := specialists()
	conv := NewConversation(completer, logging.NewTestLogger().Logger, WithMaxRounds(1))

	transcript, err := conv.Run(context.Background(), "open")
	require.NoError(t, err)
	assert.Len(t, transcript, 1)
	assert.Empty(t, completer.Calls())
}

func TestConversation_PromptCarriesTranscript(t *testing.T) {
	completer := specialists()
	conv := NewConversation(completer, logging.NewTestLogger().Logger)

	_, err := conv.Run(context.Background(), "open")
	require.NoError(t, err)

	calls := completer.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "Compliance_Manager: open\n\nRespond as IEC62304_Auditor.", calls[0].User)
	assert.Equal(t, IEC62304Name, calls[0].Role)
	assert.Equal(t, IEC62304Auditor.SystemPrompt, calls[0].System)
	assert.Equal(t,
		"Compliance_Manager: open\n\nIEC62304_Auditor: IEC: COMPLIANT\n\nISO14971_Auditor: ISO14971: gaps in RMF\n\nRespond as ISO13485_Auditor.",
		calls[2].User)
}

func TestConversation_FailureIsFatal(t *testing.T) {
	upstream := errors.New("rate limited")
	completer := llmtest.New().
		On("IEC 62304", "fine").
		Fail("ISO 14971", upstream)
	conv := NewConversation(completer, logging.NewTestLogger().Logger)

	transcript, err := conv.Run(context.Background(), "open")
	require.ErrorIs(t, err, upstream)
	assert.Nil(t, transcript)
	assert.Equal(t, "audit: turn 3 (ISO14971_Auditor): rate limited", err.Error())
}

func TestConversation_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	conv := NewConversation(specialists(), logging.NewTestLogger().Logger)
	_, err := conv.Run(ctx, "open")
	require.ErrorIs(t, err, context.Canceled)
}

func TestConversation_EmptyRoster(t *testing.T) {
	conv := NewConversation(specialists(), logging.NewTestLogger().Logger, WithRoster(nil))
	_, err := conv.Run(context.Background(), "open")
	require.ErrorIs(t, err, ErrEmptyRoster)
}

func TestConversation_CustomTermination(t *testing.T) {
	conv := NewConversation(specialists(), logging.NewTestLogger().Logger,
		WithMaxRounds(10),
		WithTermination(func(s string) bool { return s == "ISO14971: gaps in RMF" }))

	transcript, err := conv.Run(context.Background(), "open")
	require.NoError(t, err)
	assert.Equal(t, ISO14971Name, transcript[len(transcript)-1].Role)
}
