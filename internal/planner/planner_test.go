package planner

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

func TestParseStandards(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"two standards", "IEC 62304, ISO 14971", []string{"IEC 62304", "ISO 14971"}},
		{"single", "  ISO 13485  ", []string{"ISO 13485"}},
		{"extra whitespace", "IEC 62304 ,\n ISO 14971,ISO 13485", []string{"IEC 62304", "ISO 14971", "ISO 13485"}},
		{"empty parts kept", "IEC 62304,,", []string{"IEC 62304", "", ""}},
		{"empty text", "", []string{""}},
		{"prose is not filtered", "The impacted standards are IEC 62304", []string{"The impacted standards are IEC 62304"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseStandards(tt.raw)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlanner_Execute(t *testing.T) {
	completer := llmtest.New().On("Regulatory Affairs expert", "IEC 62304, ISO 14971")
	p := New(completer, logging.NewTestLogger().Logger)

	state := pipeline.NewState("Add Bluetooth module to the infusion pump")
	result, err := p.Execute(context.Background(), state)
	require.NoError(t, err)

	assert.Equal(t, []string{"IEC 62304", "ISO 14971"}, state.ImpactedStandards)
	assert.Equal(t, "IEC 62304, ISO 14971", result.Output)

	calls := completer.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, SystemPrompt, calls[0].System)
	assert.Equal(t, "Add Bluetooth module to the infusion pump", calls[0].User)
	assert.Equal(t, Role, calls[0].Role)
}

func TestPlanner_CompletionFailure(t *testing.T) {
	upstream := errors.New("503 service unavailable")
	p := New(llmtest.New().Fail("Regulatory", upstream), logging.NewTestLogger().Logger)

	state := pipeline.NewState("req")
	_, err := p.Execute(context.Background(), state)

	require.ErrorIs(t, err, upstream)
	assert.Contains(t, err.Error(), "planner: classify request")
	assert.Nil(t, state.ImpactedStandards)
}
