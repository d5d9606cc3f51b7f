// Package llm defines the completion service boundary used by every
// pipeline stage, with an OpenAI-compatible implementation and decorators
// for rate limiting and instrumentation.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when the service answers with no choices.
var ErrEmptyResponse = errors.New("llm: empty response")

// Completer sends one system instruction and one user message and returns
// the generated text.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, system, user string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

type roleCtxKey struct{}

// WithRole labels completion calls made with ctx. Instrumented uses the
// label for metrics and spans.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, roleCtxKey{}, role)
}

// RoleFromContext returns the caller label, or "unknown".
func RoleFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(roleCtxKey{}).(string); ok && r != "" {
		return r
	}
	return "unknown"
}
