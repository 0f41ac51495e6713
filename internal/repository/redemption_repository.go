package repository

import (
	"context"

	"github.com/kkkkikiki/punchcard/internal/model"
)

// CreateRedemption appends a redemption record
func (r *Postgres) CreateRedemption(ctx context.Context, rd *model.Redemption) error {
	query := `
		INSERT INTO redemptions (id, customer_id, merchant_id, loyalty_program_id, reward_name, stamps_consumed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		rd.ID, rd.CustomerID, rd.MerchantID, rd.LoyaltyProgramID, rd.RewardName, rd.StampsConsumed, rd.CreatedAt)
	if err != nil {
		return insertErr(err, "redemption")
	}
	return nil
}
