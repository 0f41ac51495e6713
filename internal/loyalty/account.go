package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

const defaultPlan = "free"

// MerchantInput is a merchant signup
type MerchantInput struct {
	DisplayName      string
	Email            string
	Password         string
	BusinessType     string
	Location         string
	ContactInfo      string
	SubscriptionPlan string
}

// CreateMerchant signs up a merchant
func (e *Engine) CreateMerchant(ctx context.Context, in MerchantInput) (*model.Merchant, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return nil, invalid("displayName", "must not be empty")
	}
	email, hash, err := e.credentials(in.Email, in.Password)
	if err != nil {
		return nil, err
	}

	plan := strings.TrimSpace(in.SubscriptionPlan)
	if plan == "" {
		plan = defaultPlan
	}

	now := e.now()
	merchant := &model.Merchant{
		ID:               e.newID(),
		DisplayName:      name,
		Email:            email,
		PasswordHash:     hash,
		BusinessType:     strings.TrimSpace(in.BusinessType),
		Location:         strings.TrimSpace(in.Location),
		ContactInfo:      strings.TrimSpace(in.ContactInfo),
		SubscriptionPlan: plan,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := e.store.CreateMerchant(ctx, merchant); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, err
	}
	return merchant, nil
}

// UpdateMerchantBranding sets the merchant's logo path and theme. Nil leaves a
// field untouched and an empty string clears it.
func (e *Engine) UpdateMerchantBranding(ctx context.Context, merchantID string, logoPath, theme *string) (*model.Merchant, error) {
	var merchant *model.Merchant
	err := e.store.Atomic(ctx, "", func(q repository.Queries) error {
		m, err := requireMerchant(ctx, q, merchantID)
		if err != nil {
			return err
		}
		if logoPath != nil {
			m.BrandingLogoPath = optional(*logoPath)
		}
		if theme != nil {
			m.BrandingTheme = optional(*theme)
		}
		m.UpdatedAt = e.now()
		if err := q.UpdateMerchantBranding(ctx, m); err != nil {
			return err
		}
		merchant = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merchant, nil
}

// RegisterCustomer creates a customer account
func (e *Engine) RegisterCustomer(ctx context.Context, email, password string) (*model.Customer, error) {
	email, hash, err := e.credentials(email, password)
	if err != nil {
		return nil, err
	}

	customer := &model.Customer{
		ID:           e.newID(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    e.now(),
	}
	if err := e.store.CreateCustomer(ctx, customer); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, fmt.Errorf("%w: %s", ErrEmailTaken, email)
		}
		return nil, err
	}
	return customer, nil
}

// credentials normalizes the email and hashes the password
func (e *Engine) credentials(email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if at := strings.IndexByte(email, '@'); at < 1 || at == len(email)-1 {
		return "", "", invalid("email", "must be an email address")
	}
	if password == "" {
		return "", "", invalid("password", "must not be empty")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.hashCost)
	if err != nil {
		return "", "", invalid("password", err.Error())
	}
	return email, string(hash), nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
