package model

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by the store when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned by the store when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate record")
)

// Merchant represents a business account in the database
type Merchant struct {
	ID               string    `db:"id" json:"id"`
	DisplayName      string    `db:"display_name" json:"displayName"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	BusinessType     string    `db:"business_type" json:"businessType"`
	Location         string    `db:"location" json:"location"`
	ContactInfo      string    `db:"contact_info" json:"contactInfo"`
	BrandingLogoPath *string   `db:"branding_logo_path" json:"brandingLogoPath,omitempty"`
	BrandingTheme    *string   `db:"branding_theme" json:"brandingTheme,omitempty"`
	SubscriptionPlan string    `db:"subscription_plan" json:"subscriptionPlan"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// JoinLinkPath is the relative path customers follow to join this merchant
func (m *Merchant) JoinLinkPath() string {
	return "/join/" + m.ID
}

// Customer represents an end user in the database
type Customer struct {
	ID           string    `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// LoyaltyProgram is a "collect Threshold stamps, get RewardName" rule owned by a merchant
type LoyaltyProgram struct {
	ID            string     `db:"id" json:"id"`
	MerchantID    string     `db:"merchant_id" json:"merchantId"`
	RewardName    string     `db:"reward_name" json:"rewardName"`
	Threshold     int        `db:"threshold" json:"threshold"`
	ExpiryDate    *time.Time `db:"expiry_date" json:"expiryDate,omitempty"`
	QRCodePayload *string    `db:"qr_code_payload" json:"qrCodePayload,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}

// Stamp is one unit of credit a customer holds with a merchant.
// LoyaltyProgramID is nil for merchant-wide stamps.
type Stamp struct {
	ID               string    `db:"id" json:"id"`
	MerchantID       string    `db:"merchant_id" json:"merchantId"`
	CustomerID       string    `db:"customer_id" json:"customerId"`
	LoyaltyProgramID *string   `db:"loyalty_program_id" json:"loyaltyProgramId,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Membership records that a customer explicitly joined a specific program
type Membership struct {
	CustomerID       string    `db:"customer_id" json:"customerId"`
	LoyaltyProgramID string    `db:"loyalty_program_id" json:"loyaltyProgramId"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}

// Redemption is the immutable record of a reward being granted
type Redemption struct {
	ID               string    `db:"id" json:"id"`
	CustomerID       string    `db:"customer_id" json:"customerId"`
	MerchantID       string    `db:"merchant_id" json:"merchantId"`
	LoyaltyProgramID string    `db:"loyalty_program_id" json:"loyaltyProgramId"`
	RewardName       string    `db:"reward_name" json:"rewardName"`
	StampsConsumed   int       `db:"stamps_consumed" json:"stampsConsumed"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
}
