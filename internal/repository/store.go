package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kkkkikiki/punchcard/internal/model"
)

// DBExecutor interface for database operations (can be *sqlx.DB or *sqlx.Tx)
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Queries is the set of reads and writes the loyalty core performs.
// Lookups that match nothing return model.ErrNotFound and inserts that hit a
// unique constraint return model.ErrDuplicate.
type Queries interface {
	CreateMerchant(ctx context.Context, m *model.Merchant) error
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)
	UpdateMerchantBranding(ctx context.Context, m *model.Merchant) error

	CreateCustomer(ctx context.Context, c *model.Customer) error
	GetCustomer(ctx context.Context, id string) (*model.Customer, error)

	CreateProgram(ctx context.Context, p *model.LoyaltyProgram) error
	GetProgram(ctx context.Context, id string) (*model.LoyaltyProgram, error)
	UpdateProgram(ctx context.Context, p *model.LoyaltyProgram) error
	DeleteProgram(ctx context.Context, id string) error
	ListProgramsByMerchant(ctx context.Context, merchantID string) ([]model.LoyaltyProgram, error)

	CreateMembership(ctx context.Context, m *model.Membership) error
	GetMembership(ctx context.Context, customerID, programID string) (*model.Membership, error)
	DeleteMembershipsByProgram(ctx context.Context, programID string) (int64, error)
	DeleteMembershipsForMerchant(ctx context.Context, customerID, merchantID string) (int64, error)

	CreateStamp(ctx context.Context, s *model.Stamp) error
	FirstStamp(ctx context.Context, customerID, merchantID string) (*model.Stamp, error)
	ListRedeemableStamps(ctx context.Context, customerID, merchantID, programID string) ([]model.Stamp, error)
	DeleteStamps(ctx context.Context, ids []string) (int64, error)
	DeleteStampsByProgram(ctx context.Context, programID string) (int64, error)
	DeleteStampsForMerchant(ctx context.Context, customerID, merchantID string) (int64, error)

	CreateRedemption(ctx context.Context, r *model.Redemption) error
}

// Store is Queries plus transactional execution.
type Store interface {
	Queries

	// Atomic runs fn in a single transaction. When lockKey is non-empty the
	// transaction first takes an exclusive lock on it, serializing every
	// Atomic call that uses the same key until commit or rollback.
	Atomic(ctx context.Context, lockKey string, fn func(q Queries) error) error
}

// Postgres implements Queries on top of a DBExecutor
type Postgres struct {
	db DBExecutor
}

// NewPostgres binds the queries to db, which may be a pool or a transaction
func NewPostgres(db DBExecutor) *Postgres {
	return &Postgres{db: db}
}

// PostgresStore is the Store backed by a PostgreSQL pool
type PostgresStore struct {
	*Postgres
	pool *sqlx.DB
}

// NewPostgresStore creates a new store over the given pool
func NewPostgresStore(pool *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		Postgres: NewPostgres(pool),
		pool:     pool,
	}
}

// Atomic implements Store using a transaction-scoped advisory lock
func (s *PostgresStore) Atomic(ctx context.Context, lockKey string, fn func(q Queries) error) error {
	tx, err := s.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if lockKey != "" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
			return fmt.Errorf("failed to acquire lock %q: %w", lockKey, err)
		}
	}

	if err := fn(NewPostgres(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// notFound maps sql.ErrNoRows to model.ErrNotFound
func notFound(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.ErrNotFound
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}

// insertErr maps a unique violation to model.ErrDuplicate
func insertErr(err error, what string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("%w: %s (%s)", model.ErrDuplicate, what, pqErr.Constraint)
	}
	return fmt.Errorf("failed to create %s: %w", what, err)
}
