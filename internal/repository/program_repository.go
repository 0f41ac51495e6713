package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kkkkikiki/punchcard/internal/model"
)

const programColumns = `id, merchant_id, reward_name, threshold, expiry_date, qr_code_payload, created_at, updated_at`

// CreateProgram inserts a new loyalty program
func (r *Postgres) CreateProgram(ctx context.Context, p *model.LoyaltyProgram) error {
	query := `
		INSERT INTO loyalty_programs (` + programColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.MerchantID, p.RewardName, p.Threshold, p.ExpiryDate, p.QRCodePayload, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return insertErr(err, "loyalty program")
	}
	return nil
}

// GetProgram retrieves a loyalty program by ID
func (r *Postgres) GetProgram(ctx context.Context, id string) (*model.LoyaltyProgram, error) {
	query := `SELECT ` + programColumns + ` FROM loyalty_programs WHERE id = $1`

	var program model.LoyaltyProgram
	if err := r.db.GetContext(ctx, &program, query, id); err != nil {
		return nil, notFound(err, "loyalty program")
	}
	return &program, nil
}

// UpdateProgram overwrites the mutable fields of p
func (r *Postgres) UpdateProgram(ctx context.Context, p *model.LoyaltyProgram) error {
	query := `
		UPDATE loyalty_programs
		SET reward_name = $1, threshold = $2, expiry_date = $3, qr_code_payload = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.ExecContext(ctx, query,
		p.RewardName, p.Threshold, p.ExpiryDate, p.QRCodePayload, p.UpdatedAt, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update loyalty program: %w", err)
	}
	return requireRow(result)
}

// DeleteProgram removes the program row. Dependent memberships and stamps
// must be deleted first.
func (r *Postgres) DeleteProgram(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM loyalty_programs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete loyalty program: %w", err)
	}
	return requireRow(result)
}

// ListProgramsByMerchant returns the merchant's programs, oldest first
func (r *Postgres) ListProgramsByMerchant(ctx context.Context, merchantID string) ([]model.LoyaltyProgram, error) {
	query := `
		SELECT ` + programColumns + `
		FROM loyalty_programs
		WHERE merchant_id = $1
		ORDER BY created_at ASC, id ASC
	`

	var programs []model.LoyaltyProgram
	if err := r.db.SelectContext(ctx, &programs, query, merchantID); err != nil {
		return nil, fmt.Errorf("failed to list loyalty programs: %w", err)
	}
	return programs, nil
}

// requireRow turns a zero-row update or delete into model.ErrNotFound
func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
