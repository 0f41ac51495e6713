// Package notify delivers customer-facing events such as "stamp earned" and
// "reward redeemed". Delivery is best effort: callers log failures and carry on.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Kind identifies the event that triggered a notification
type Kind string

const (
	KindStampEarned    Kind = "stamp_earned"
	KindRewardRedeemed Kind = "reward_redeemed"
)

// Notification is the payload handed to every sink
type Notification struct {
	Kind       Kind      `json:"kind"`
	CustomerID string    `json:"customerId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}

// Encode returns the wire form shared by the Kafka and Redis sinks
func (n Notification) Encode() ([]byte, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}
	return b, nil
}

// Sink is the outbound port for notifications
type Sink interface {
	Notify(ctx context.Context, n Notification) error
}

// LogSink writes notifications to the context logger
type LogSink struct{}

// Notify implements Sink
func (LogSink) Notify(ctx context.Context, n Notification) error {
	zerolog.Ctx(ctx).Info().
		Str("kind", string(n.Kind)).
		Str("customer_id", n.CustomerID).
		Str("title", n.Title).
		Msg(n.Body)
	return nil
}

// Multi fans a notification out to every sink concurrently and returns the
// first error once all of them finished.
type Multi []Sink

// Notify implements Sink
func (m Multi) Notify(ctx context.Context, n Notification) error {
	var g errgroup.Group
	for _, s := range m {
		s := s
		g.Go(func() error {
			return s.Notify(ctx, n)
		})
	}
	return g.Wait()
}

// Discard drops every notification
type Discard struct{}

// Notify implements Sink
func (Discard) Notify(context.Context, Notification) error { return nil }

// Timeout bounds each delivery to D
type Timeout struct {
	Sink Sink
	D    time.Duration
}

// Notify implements Sink
func (t Timeout) Notify(ctx context.Context, n Notification) error {
	if t.D <= 0 {
		return t.Sink.Notify(ctx, n)
	}
	ctx, cancel := context.WithTimeout(ctx, t.D)
	defer cancel()
	return t.Sink.Notify(ctx, n)
}
