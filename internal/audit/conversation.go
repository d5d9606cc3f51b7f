package audit

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/regaudit/internal/llm"
	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/fyrsmithlabs/regaudit/internal/pipeline"
	"go.uber.org/zap"
)

// DefaultMaxRounds gives each default specialist exactly one turn.
const DefaultMaxRounds = 4

// ErrEmptyRoster is returned when a conversation has nobody to open it.
var ErrEmptyRoster = errors.New("audit: empty roster")

// Conversation is a bounded round-robin dialogue.
type Conversation struct {
	roster    []Role
	maxRounds int
	done      func(string) bool
	llm       llm.Completer
	logger    *logging.Logger
}

// ConversationOption configures a Conversation.
type ConversationOption func(*Conversation)

// WithRoster replaces the default roster. The first role opens the conversation.
func WithRoster(roster []Role) ConversationOption {
	return func(c *Conversation) { c.roster = roster }
}

// WithMaxRounds sets the turn budget, opening message included.
func WithMaxRounds(n int) ConversationOption {
	return func(c *Conversation) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// WithTermination replaces the completion predicate.
func WithTermination(done func(string) bool) ConversationOption {
	return func(c *Conversation) { c.done = done }
}

// NewConversation creates a Conversation over the default roster.
func NewConversation(completer llm.Completer, logger *logging.Logger, opts ...ConversationOption) *Conversation {
	c := &Conversation{
		roster:    DefaultRoster(),
		maxRounds: DefaultMaxRounds,
		done:      Completed,
		llm:       completer,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run posts opening as the first roster member and lets the others reply in
// turn. It returns the full transcript, opening message first.
//
// The predicate is applied to generated turns only. Any completion failure
// aborts the conversation and nothing said so far is returned.
func (c *Conversation) Run(ctx context.Context, opening string) ([]pipeline.Message, error) {
	if len(c.roster) == 0 {
		return nil, ErrEmptyRoster
	}
	initMetrics()

	opener := c.roster[0]
	transcript := []pipeline.Message{{Role: opener.Name, Content: opening}}
	turnsTotal.WithLabelValues(opener.Name).Inc()

	queue := c.refill(nil)
	for len(transcript) < c.maxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(queue) == 0 {
			queue = c.refill(queue)
		}
		speaker := queue[0]
		queue = queue[1:]
		turn := len(transcript) + 1

		reply, err := c.speak(ctx, speaker, transcript)
		if err != nil {
			return nil, fmt.Errorf("audit: turn %d (%s): %w", turn, speaker.Name, err)
		}
		transcript = append(transcript, pipeline.Message{Role: speaker.Name, Content: reply})
		turnsTotal.WithLabelValues(speaker.Name).Inc()

		c.logger.Info(ctx, "audit turn",
			zap.Int("turn", turn),
			zap.String("role", speaker.Name),
			zap.Int("chars", len(reply)))

		if c.done(reply) {
			c.logger.Info(ctx, "audit completed by participant",
				zap.Int("turn", turn), zap.String("role", speaker.Name))
			return transcript, nil
		}
	}

	c.logger.Info(ctx, "audit turn budget exhausted", zap.Int("max_rounds", c.maxRounds))
	return transcript, nil
}

// refill appends one full rotation after the opener, then the opener itself.
func (c *Conversation) refill(queue []Role) []Role {
	queue = append(queue, c.roster[1:]...)
	return append(queue, c.roster[0])
}

func (c *Conversation) speak(ctx context.Context, speaker Role, transcript []pipeline.Message) (string, error) {
	if speaker.Terminator {
		return "", nil
	}
	return c.llm.Complete(llm.WithRole(ctx, speaker.Name), speaker.SystemPrompt, renderTurnPrompt(transcript, speaker.Name))
}
