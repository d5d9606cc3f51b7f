package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fyrsmithlabs/regaudit/internal/logging"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Publisher sends lifecycle events. Implementations must be safe for
// concurrent use and must not block runs on delivery failures.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
	Close() error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) {}

// Close implements Publisher.
func (Nop) Close() error { return nil }

// Subject returns the subject an event of kind for runID is published on.
func Subject(prefix, runID string, kind Kind) string {
	return fmt.Sprintf("%s.runs.%s.%s", prefix, runID, kind)
}

// Wildcard returns the subject matching every run event under prefix.
func Wildcard(prefix string) string {
	return prefix + ".runs.>"
}

// Connect dials a NATS server.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("regaudit"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return nc, nil
}

// NATSPublisher publishes events as JSON on a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
	logger *logging.Logger
}

// NewNATSPublisher creates a publisher on an open connection.
func NewNATSPublisher(nc *nats.Conn, prefix string, logger *logging.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix, logger: logger}
}

// Publish implements Publisher.
func (p *NATSPublisher) Publish(ctx context.Context, ev Event) {
	subject := Subject(p.prefix, ev.RunID, ev.Kind)

	data, err := json.Marshal(ev)
	if err != nil {
		p.logger.Warn(ctx, "marshal event failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn(ctx, "publish event failed", zap.String("subject", subject), zap.Error(err))
		return
	}
	p.logger.Debug(ctx, "published event", zap.String("subject", subject))
}

// Close drains the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Subscribe delivers every run event under prefix to fn. Messages that
// are not valid events are skipped.
func Subscribe(nc *nats.Conn, prefix string, fn func(Event)) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(Wildcard(prefix), func(msg *nats.Msg) {
		var ev Event
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return
		}
		fn(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", Wildcard(prefix), err)
	}
	return sub, nil
}
