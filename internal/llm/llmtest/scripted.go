// Package llmtest provides a scripted llm.Completer for tests.
package llmtest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fyrsmithlabs/regaudit/internal/llm"
)

// ErrUnscripted is returned for a call no route matches and no default covers.
var ErrUnscripted = errors.New("llmtest: unscripted completion call")

// Call is one recorded completion request.
type Call struct {
	Role   string
	System string
	User   string
}

type route struct {
	match   string
	replies []string
	err     error
}

// Scripted answers completion calls from routes keyed by a substring of
// the system prompt. A route replays its replies in order and then keeps
// returning the last one.
type Scripted struct {
	mu       sync.Mutex
	routes   []*route
	fallback *string
	calls    []Call
}

var _ llm.Completer = (*Scripted)(nil)

// New returns an empty script.
func New() *Scripted {
	return &Scripted{}
}

// On answers calls whose system prompt contains match.
func (s *Scripted) On(match string, replies ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, &route{match: match, replies: replies})
	return s
}

// Fail returns err for calls whose system prompt contains match.
func (s *Scripted) Fail(match string, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, &route{match: match, err: err})
	return s
}

// Default answers every call no route matches.
func (s *Scripted) Default(reply string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = &reply
	return s
}

// Complete implements llm.Completer.
func (s *Scripted) Complete(ctx context.Context, system, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, Call{Role: llm.RoleFromContext(ctx), System: system, User: user})

	for _, r := range s.routes {
		if !strings.Contains(system, r.match) {
			continue
		}
		if r.err != nil {
			return "", r.err
		}
		if len(r.replies) == 0 {
			return "", nil
		}
		reply := r.replies[0]
		if len(r.replies) > 1 {
			r.replies = r.replies[1:]
		}
		return reply, nil
	}

	if s.fallback != nil {
		return *s.fallback, nil
	}
	return "", fmt.Errorf("%w: system prompt %q", ErrUnscripted, truncate(system, 60))
}

// Calls returns every recorded call in order.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsMatching returns recorded calls whose system prompt contains match.
func (s *Scripted) CallsMatching(match string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if strings.Contains(c.System, match) {
			out = append(out, c)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
