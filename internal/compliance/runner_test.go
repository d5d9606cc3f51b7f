package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/regaudit/internal/audit"
	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/fyrsmithlabs/regaudit/internal/events"
	"github.com/fyrsmithlabs/regaudit/internal/llm/llmtest"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"github.com/fyrsmithlabs/regaudit/internal/planner"
	"github.com/fyrsmithlabs/regaudit/internal/report"
	"github.com/fyrsmithlabs/regaudit/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.Event) {
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) Close() error { return nil }

func testConfig() *config.Config {
	cfg := config.NewDefaultConfig()
	cfg.LLM.RateLimit = 0
	cfg.Documents.SpecPath = "/nonexistent"
	cfg.Documents.RedactSecrets = false
	return cfg
}

func scriptedRun() *llmtest.Scripted {
	return llmtest.New().
		On("Regulatory Affairs expert", "IEC 62304, ISO 14971, ISO 13485").
		On("technical writer", "SRS body").
		On("risk management specialist", "RMF body").
		On("IEC 62304 Medical Device Software auditor", "Clause 5: COMPLIANT").
		On("ISO 14971 Risk Management auditor", "Hazard table incomplete").
		On("ISO 13485 Quality Management System auditor", "Clause 7: COMPLIANT\nAUDIT_COMPLETE")
}

func TestRunner_EndToEnd(t *testing.T) {
	completer := scriptedRun()
	pub := &recordingPublisher{}
	tel := telemetry.NewTestTelemetry()
	var notices []string

	r, err := New(Options{
		Config:    testConfig(),
		Logger:    logging.NewTestLogger().Logger,
		Tracer:    tel.Tracer("test"),
		Publisher: pub,
		Completer: completer,
		Notify:    func(msg string) { notices = append(notices, msg) },
	})
	require.NoError(t, err)

	state, err := r.Run(context.Background(), "Add Bluetooth module")
	require.NoError(t, err)

	assert.Equal(t, pipeline.StatusCompleted, state.Status)
	assert.Equal(t, []string{"IEC 62304", "ISO 14971", "ISO 13485"}, state.ImpactedStandards)
	assert.Equal(t, []string{"SRS", "RMF", "QMS"}, state.LoadedDocuments.Keys())
	require.Len(t, state.AuditFindings, 1)
	assert.Equal(t, "Clause 7: COMPLIANT", state.AuditFindings[0].Details)
	assert.Len(t, state.ConversationLog, 4)
	assert.Equal(t, report.Compile(state.UserRequest, state.ImpactedStandards, state.AuditFindings), state.FinalReportContent)
	assert.Empty(t, state.Violations)

	assert.Len(t, completer.Calls(), 6)
	assert.Len(t, completer.CallsMatching(planner.SystemPrompt), 1)

	require.NotEmpty(t, pub.events)
	assert.Equal(t, events.KindStarted, pub.events[0].Kind)
	assert.Equal(t, events.KindCompleted, pub.events[len(pub.events)-1].Kind)

	tel.AssertSpanExists(t, "pipeline.run")
	tel.AssertSpanExists(t, "llm.complete")

	joined := strings.Join(notices, "\n")
	assert.Contains(t, joined, "Impacted Standards identified: [IEC 62304, ISO 14971, ISO 13485]")
	assert.Contains(t, joined, "Fetching Software Requirements Spec due to IEC 62304 impact...")
	assert.Contains(t, joined, "Report generated successfully.")
}

func TestRunner_SeparateAuditorCompleter(t *testing.T) {
	general := llmtest.New().
		On("Regulatory Affairs expert", "IEC 62304").
		On("technical writer", "SRS body")
	auditor := llmtest.New().Default("ok AUDIT_COMPLETE")

	r, err := New(Options{Config: testConfig(), Completer: general, AuditorCompleter: auditor})
	require.NoError(t, err)

	state, err := r.Run(context.Background(), "req")
	require.NoError(t, err)

	assert.Len(t, general.Calls(), 2)
	assert.Len(t, auditor.CallsMatching(audit.IEC62304Auditor.SystemPrompt), 1)
	assert.Equal(t, "ok", state.AuditFindings[0].Details)
}

func TestRunner_NoStandardsWarnsButCompletes(t *testing.T) {
	completer := llmtest.New().
		On("Regulatory Affairs expert", "FDA guidance").
		Default("reviewed")

	tl := logging.NewTestLogger()
	r, err := New(Options{Config: testConfig(), Logger: tl.Logger, Completer: completer})
	require.NoError(t, err)

	state, err := r.Run(context.Background(), "req")
	require.NoError(t, err)

	assert.Zero(t, state.LoadedDocuments.Len())
	require.Len(t, state.Violations, 1)
	assert.Equal(t, "documents-loaded", state.Violations[0].Gate)
	assert.Equal(t, audit.NoSummary, state.AuditFindings[0].Details)
}

func TestRunner_FailurePublishesAndReturnsState(t *testing.T) {
	upstream := errors.New("service unavailable")
	completer := llmtest.New().Fail("Regulatory Affairs expert", upstream)
	pub := &recordingPublisher{}

	r, err := New(Options{Config: testConfig(), Publisher: pub, Completer: completer})
	require.NoError(t, err)

	state, err := r.Run(context.Background(), "req")
	require.ErrorIs(t, err, upstream)
	require.NotNil(t, state)
	assert.Equal(t, pipeline.StatusFailed, state.Status)
	assert.Equal(t, pipeline.StatusFailed, state.Results[pipeline.StagePlan].Status)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, events.KindFailed, last.Kind)
	assert.Contains(t, last.Error, "planner: classify request")
}

func TestRunner_BuildsOpenAIClientsFromConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LLM.APIKey = "sk-test"
	cfg.LLM.BaseURL = "http://127.0.0.1:1/v1"

	r, err := New(Options{Config: cfg})
	require.NoError(t, err)
	assert.NotNil(t, r)
}
