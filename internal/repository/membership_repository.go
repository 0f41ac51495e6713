package repository

import (
	"context"
	"fmt"

	"github.com/kkkkikiki/punchcard/internal/model"
)

// CreateMembership inserts a (customer, program) membership. The composite
// primary key rejects a second row for the same pair with model.ErrDuplicate.
func (r *Postgres) CreateMembership(ctx context.Context, m *model.Membership) error {
	query := `
		INSERT INTO customer_loyalty_programs (customer_id, loyalty_program_id, created_at)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.ExecContext(ctx, query, m.CustomerID, m.LoyaltyProgramID, m.CreatedAt); err != nil {
		return insertErr(err, "membership")
	}
	return nil
}

// GetMembership retrieves the membership for a (customer, program) pair
func (r *Postgres) GetMembership(ctx context.Context, customerID, programID string) (*model.Membership, error) {
	query := `
		SELECT customer_id, loyalty_program_id, created_at
		FROM customer_loyalty_programs
		WHERE customer_id = $1 AND loyalty_program_id = $2
	`

	var membership model.Membership
	if err := r.db.GetContext(ctx, &membership, query, customerID, programID); err != nil {
		return nil, notFound(err, "membership")
	}
	return &membership, nil
}

// DeleteMembershipsByProgram removes every membership of a program
func (r *Postgres) DeleteMembershipsByProgram(ctx context.Context, programID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM customer_loyalty_programs WHERE loyalty_program_id = $1`, programID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}
	return result.RowsAffected()
}

// DeleteMembershipsForMerchant removes a customer's memberships to any of the merchant's programs
func (r *Postgres) DeleteMembershipsForMerchant(ctx context.Context, customerID, merchantID string) (int64, error) {
	query := `
		DELETE FROM customer_loyalty_programs
		WHERE customer_id = $1
		  AND loyalty_program_id IN (SELECT id FROM loyalty_programs WHERE merchant_id = $2)
	`

	result, err := r.db.ExecContext(ctx, query, customerID, merchantID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships: %w", err)
	}
	return result.RowsAffected()
}
