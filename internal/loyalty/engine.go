// Package loyalty implements the punch-card core: joining programs,
// issuing stamps and redeeming rewards.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"

	"github.com/kkkkikiki/punchcard/internal/metrics"
	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/notify"
	"github.com/kkkkikiki/punchcard/internal/repository"
	"github.com/kkkkikiki/punchcard/internal/resolver"
)

const tracerName = "github.com/kkkkikiki/punchcard/internal/loyalty"

// Engine runs the loyalty operations against a Store
type Engine struct {
	store        repository.Store
	resolver     *resolver.Resolver
	sink         notify.Sink
	frontendBase string
	tracer       trace.Tracer
	now          func() time.Time
	newID        func() string
	hashCost     int
}

// Option configures an Engine
type Option func(*Engine)

// WithSink sets the notification sink. The default discards notifications.
func WithSink(sink notify.Sink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator overrides the uuid-based id generator
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// WithHashCost sets the bcrypt cost used for passwords
func WithHashCost(cost int) Option {
	return func(e *Engine) { e.hashCost = cost }
}

// NewEngine creates an Engine. frontendBase is the public origin join links
// are built from, e.g. https://app.example.com.
func NewEngine(store repository.Store, frontendBase string, opts ...Option) *Engine {
	e := &Engine{
		store:        store,
		sink:         notify.Discard{},
		frontendBase: frontendBase,
		tracer:       otel.Tracer(tracerName),
		now:          time.Now,
		newID:        uuid.NewString,
		hashCost:     bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resolver = resolver.New(storeLookup{q: store})
	return e
}

// JoinLink returns the shareable URL for a program or merchant id
func JoinLink(frontendBase, id string) string {
	return strings.TrimRight(frontendBase, "/") + "/join/" + url.PathEscape(id)
}

// Resolve maps a customer-supplied identifier to a merchant and optional program
func (e *Engine) Resolve(ctx context.Context, identifier string) (resolver.Result, error) {
	res, err := e.resolver.Resolve(ctx, identifier)
	if errors.Is(err, resolver.ErrNoMatch) {
		return resolver.Result{}, fmt.Errorf("%w: %q", ErrInvalidIdentifier, identifier)
	}
	return res, err
}

// notify delivers n after the triggering mutation committed. Failures are
// logged and counted, never returned.
func (e *Engine) notify(ctx context.Context, n notify.Notification) {
	n.SentAt = e.now()
	if err := e.sink.Notify(ctx, n); err != nil {
		metrics.RecordNotificationFailure(string(n.Kind))
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("kind", string(n.Kind)).
			Str("customer_id", n.CustomerID).
			Msg("Failed to deliver notification")
	}
}

func (e *Engine) observe(operation string, start time.Time, err error) {
	metrics.RecordOperation(operation, outcome(err), time.Since(start).Seconds())
}

// lockKey serializes work on one customer's stamps at one merchant
func lockKey(customerID, merchantID string) string {
	return "stamps:" + customerID + "|" + merchantID
}

func requireCustomer(ctx context.Context, q repository.Queries, id string) (*model.Customer, error) {
	c, err := q.GetCustomer(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrCustomerNotFound, id)
	}
	return c, err
}

func requireMerchant(ctx context.Context, q repository.Queries, id string) (*model.Merchant, error) {
	m, err := q.GetMerchant(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrMerchantNotFound, id)
	}
	return m, err
}

// requireProgram loads a program. When merchantID is non-empty a program owned
// by another merchant is reported as not found.
func requireProgram(ctx context.Context, q repository.Queries, id, merchantID string) (*model.LoyaltyProgram, error) {
	p, err := q.GetProgram(ctx, id)
	if errors.Is(err, model.ErrNotFound) || (err == nil && merchantID != "" && p.MerchantID != merchantID) {
		return nil, fmt.Errorf("%w: %s", ErrProgramNotFound, id)
	}
	return p, err
}

// storeLookup adapts Queries to resolver.Lookup
type storeLookup struct {
	q repository.Queries
}

func (l storeLookup) ProgramMerchant(ctx context.Context, id string) (string, bool, error) {
	p, err := l.q.GetProgram(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return p.MerchantID, true, nil
}

func (l storeLookup) MerchantExists(ctx context.Context, id string) (bool, error) {
	_, err := l.q.GetMerchant(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
