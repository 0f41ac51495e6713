package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/kkkkikiki/punchcard/internal/model"
)

// CreateStamp inserts a new stamp
func (r *Postgres) CreateStamp(ctx context.Context, s *model.Stamp) error {
	query := `
		INSERT INTO stamps (id, merchant_id, customer_id, loyalty_program_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := r.db.ExecContext(ctx, query, s.ID, s.MerchantID, s.CustomerID, s.LoyaltyProgramID, s.CreatedAt); err != nil {
		return insertErr(err, "stamp")
	}
	return nil
}

// FirstStamp returns the customer's oldest stamp with the merchant, regardless of program
func (r *Postgres) FirstStamp(ctx context.Context, customerID, merchantID string) (*model.Stamp, error) {
	query := `
		SELECT id, merchant_id, customer_id, loyalty_program_id, created_at
		FROM stamps
		WHERE customer_id = $1 AND merchant_id = $2
		ORDER BY created_at ASC, id ASC
		LIMIT 1
	`

	var stamp model.Stamp
	if err := r.db.GetContext(ctx, &stamp, query, customerID, merchantID); err != nil {
		return nil, notFound(err, "stamp")
	}
	return &stamp, nil
}

// ListRedeemableStamps returns the stamps that count toward programID: those
// tagged with it plus merchant-wide ones, oldest first. Rows are locked for
// the rest of the enclosing transaction.
func (r *Postgres) ListRedeemableStamps(ctx context.Context, customerID, merchantID, programID string) ([]model.Stamp, error) {
	query := `
		SELECT id, merchant_id, customer_id, loyalty_program_id, created_at
		FROM stamps
		WHERE customer_id = $1
		  AND merchant_id = $2
		  AND (loyalty_program_id IS NULL OR loyalty_program_id = $3)
		ORDER BY created_at ASC, id ASC
		FOR UPDATE
	`

	var stamps []model.Stamp
	if err := r.db.SelectContext(ctx, &stamps, query, customerID, merchantID, programID); err != nil {
		return nil, fmt.Errorf("failed to list stamps: %w", err)
	}
	return stamps, nil
}

// DeleteStamps deletes exactly the given stamp ids and reports how many went away
func (r *Postgres) DeleteStamps(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM stamps WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete stamps: %w", err)
	}
	return result.RowsAffected()
}

// DeleteStampsByProgram deletes stamps tagged with the program
func (r *Postgres) DeleteStampsByProgram(ctx context.Context, programID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM stamps WHERE loyalty_program_id = $1`, programID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stamps: %w", err)
	}
	return result.RowsAffected()
}

// DeleteStampsForMerchant deletes every stamp the customer holds with the merchant
func (r *Postgres) DeleteStampsForMerchant(ctx context.Context, customerID, merchantID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM stamps WHERE customer_id = $1 AND merchant_id = $2`, customerID, merchantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stamps: %w", err)
	}
	return result.RowsAffected()
}
