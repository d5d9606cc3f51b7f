package logging

import (
	"strings"
	"testing"

	"github.com/fyrsmithlabs/regaudit/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func encode(t *testing.T, enc zapcore.Encoder, fields ...zap.Field) string {
	t.Helper()
	buf, err := enc.EncodeEntry(zapcore.Entry{Message: "msg"}, fields)
	require.NoError(t, err)
	return buf.String()
}

func newJSONRedactor(t *testing.T) *RedactingEncoder {
	t.Helper()
	enc, err := NewRedactingEncoder(newEncoder("json"), NewDefaultConfig().Redaction)
	require.NoError(t, err)
	return enc
}

func TestRedactingEncoder_SensitiveKeys(t *testing.T) {
	out := encode(t, newJSONRedactor(t), zap.String("api_key", "abc"), zap.String("model", "gpt"))
	assert.Contains(t, out, `"api_key":"[REDACTED]"`)
	assert.Contains(t, out, `"model":"gpt"`)
}

func TestRedactingEncoder_ScrubsPatternsInsideValues(t *testing.T) {
	spec := "Use key sk-abcdefghijklmnopqrstuvwxyz012345 for the pump service."
	out := encode(t, newJSONRedactor(t), zap.String("spec", spec))

	assert.NotContains(t, out, "sk-abcdefghijklmnop")
	assert.Contains(t, out, "for the pump service.")
}

func TestNewRedactingEncoder_Errors(t *testing.T) {
	_, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{"("}})
	assert.Error(t, err)

	_, err = NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: true, Patterns: []string{strings.Repeat("x", 300)}})
	assert.Error(t, err)
}

func TestRedactingEncoder_Disabled(t *testing.T) {
	enc, err := NewRedactingEncoder(newEncoder("json"), RedactionConfig{Enabled: false})
	require.NoError(t, err)
	out := encode(t, enc, zap.String("api_key", "visible"))
	assert.Contains(t, out, "visible")
}

func TestSecretField(t *testing.T) {
	f := Secret("api_key", config.Secret("sk-123456"))
	assert.Equal(t, "[REDACTED:9]", f.String)

	f = RedactedString("authorization", "Bearer x")
	assert.Equal(t, "[REDACTED:8]", f.String)
}

func TestRedactingEncoder_CloneKeepsRules(t *testing.T) {
	clone := newJSONRedactor(t).Clone()
	out := encode(t, clone, zap.String("token", "t"))
	assert.Contains(t, out, `"token":"[REDACTED]"`)
}
