package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kkkkikiki/punchcard/internal/metrics"
)

var (
	// ErrQueueFull is returned when the background queue cannot take more work
	ErrQueueFull = errors.New("notification queue is full")
	// ErrClosed is returned after Close
	ErrClosed = errors.New("notification queue is closed")
)

type queued struct {
	ctx context.Context
	n   Notification
}

// Async hands notifications to a background worker so callers return as soon
// as the notification is queued. Delivery failures are logged with the
// caller's logger and counted.
type Async struct {
	sink  Sink
	queue chan queued
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewAsync starts a worker delivering to sink with room for size pending
// notifications.
func NewAsync(sink Sink, size int) *Async {
	if size < 1 {
		size = 1
	}
	a := &Async{
		sink:  sink,
		queue: make(chan queued, size),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Notify implements Sink. It never blocks on the underlying sink.
func (a *Async) Notify(ctx context.Context, n Notification) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrClosed
	}
	select {
	case a.queue <- queued{ctx: context.WithoutCancel(ctx), n: n}:
		return nil
	default:
		return ErrQueueFull
	}
}

func (a *Async) run() {
	defer close(a.done)
	for q := range a.queue {
		if err := a.sink.Notify(q.ctx, q.n); err != nil {
			metrics.RecordNotificationFailure(string(q.n.Kind))
			zerolog.Ctx(q.ctx).Warn().Err(err).
				Str("kind", string(q.n.Kind)).
				Str("customer_id", q.n.CustomerID).
				Msg("Failed to deliver notification")
		}
	}
}

// Close stops accepting notifications and waits for the queued ones to be
// delivered.
func (a *Async) Close() error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	<-a.done
	return nil
}
