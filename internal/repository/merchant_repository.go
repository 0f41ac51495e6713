package repository

import (
	"context"
	"fmt"

	"github.com/kkkkikiki/punchcard/internal/model"
)

const merchantColumns = `id, display_name, email, password_hash, business_type, location,
	contact_info, branding_logo_path, branding_theme, subscription_plan, created_at, updated_at`

// CreateMerchant inserts a new merchant
func (r *Postgres) CreateMerchant(ctx context.Context, m *model.Merchant) error {
	query := `
		INSERT INTO merchants (` + merchantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		m.ID, m.DisplayName, m.Email, m.PasswordHash, m.BusinessType, m.Location,
		m.ContactInfo, m.BrandingLogoPath, m.BrandingTheme, m.SubscriptionPlan, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return insertErr(err, "merchant")
	}

	return nil
}

// GetMerchant retrieves a merchant by ID
func (r *Postgres) GetMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	query := `SELECT ` + merchantColumns + ` FROM merchants WHERE id = $1`

	var merchant model.Merchant
	if err := r.db.GetContext(ctx, &merchant, query, id); err != nil {
		return nil, notFound(err, "merchant")
	}

	return &merchant, nil
}

// UpdateMerchantBranding persists the branding fields of m
func (r *Postgres) UpdateMerchantBranding(ctx context.Context, m *model.Merchant) error {
	query := `
		UPDATE merchants
		SET branding_logo_path = $1, branding_theme = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, m.BrandingLogoPath, m.BrandingTheme, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("failed to update merchant branding: %w", err)
	}
	return requireRow(result)
}
