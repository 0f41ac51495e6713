package loyalty

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

// expiryLayouts are the accepted expiry date formats, tried in order
var expiryLayouts = []string{time.RFC3339, "2006-01-02"}

// ProgramInput carries raw program fields as submitted by the merchant
type ProgramInput struct {
	RewardName string
	Threshold  string
	ExpiryDate string
}

// ProgramUpdate carries optional changes. Nil fields are left untouched and
// an empty ExpiryDate clears the expiry.
type ProgramUpdate struct {
	RewardName *string
	Threshold  *string
	ExpiryDate *string
}

// ParseThreshold accepts a positive whole number
func ParseThreshold(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, invalid("threshold", "must be a whole number")
	}
	if n < 1 {
		return 0, invalid("threshold", "must be at least 1")
	}
	return n, nil
}

// ParseExpiry parses an optional expiry date. Blank input means no expiry.
func ParseExpiry(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range expiryLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid("expiryDate", "must be a date (YYYY-MM-DD or RFC 3339)")
}

func parseRewardName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", invalid("rewardName", "must not be empty")
	}
	return name, nil
}

// CreateProgram validates in and creates a program for the merchant
func (e *Engine) CreateProgram(ctx context.Context, merchantID string, in ProgramInput) (*model.LoyaltyProgram, error) {
	rewardName, err := parseRewardName(in.RewardName)
	if err != nil {
		return nil, err
	}
	threshold, err := ParseThreshold(in.Threshold)
	if err != nil {
		return nil, err
	}
	expiry, err := ParseExpiry(in.ExpiryDate)
	if err != nil {
		return nil, err
	}

	if _, err := requireMerchant(ctx, e.store, merchantID); err != nil {
		return nil, err
	}

	now := e.now()
	program := &model.LoyaltyProgram{
		ID:         e.newID(),
		MerchantID: merchantID,
		RewardName: rewardName,
		Threshold:  threshold,
		ExpiryDate: expiry,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	link := JoinLink(e.frontendBase, program.ID)
	program.QRCodePayload = &link

	if err := e.store.CreateProgram(ctx, program); err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Info().
		Str("merchant_id", merchantID).
		Str("program_id", program.ID).
		Int("threshold", threshold).
		Msg("Loyalty program created")
	return program, nil
}

// UpdateProgram applies upd to a program owned by the merchant
func (e *Engine) UpdateProgram(ctx context.Context, merchantID, programID string, upd ProgramUpdate) (*model.LoyaltyProgram, error) {
	var program *model.LoyaltyProgram
	err := e.store.Atomic(ctx, "", func(q repository.Queries) error {
		p, err := requireProgram(ctx, q, programID, merchantID)
		if err != nil {
			return err
		}

		if upd.RewardName != nil {
			if p.RewardName, err = parseRewardName(*upd.RewardName); err != nil {
				return err
			}
		}
		if upd.Threshold != nil {
			if p.Threshold, err = ParseThreshold(*upd.Threshold); err != nil {
				return err
			}
		}
		if upd.ExpiryDate != nil {
			if p.ExpiryDate, err = ParseExpiry(*upd.ExpiryDate); err != nil {
				return err
			}
		}
		p.UpdatedAt = e.now()

		if err := q.UpdateProgram(ctx, p); err != nil {
			return err
		}
		program = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return program, nil
}

// DeleteProgram removes a program owned by the merchant together with its
// memberships and the stamps tagged with it. Merchant-wide stamps survive.
func (e *Engine) DeleteProgram(ctx context.Context, merchantID, programID string) error {
	return e.store.Atomic(ctx, "", func(q repository.Queries) error {
		if _, err := requireProgram(ctx, q, programID, merchantID); err != nil {
			return err
		}

		memberships, err := q.DeleteMembershipsByProgram(ctx, programID)
		if err != nil {
			return err
		}
		stamps, err := q.DeleteStampsByProgram(ctx, programID)
		if err != nil {
			return err
		}
		if err := q.DeleteProgram(ctx, programID); err != nil {
			return err
		}

		zerolog.Ctx(ctx).Info().
			Str("program_id", programID).
			Int64("memberships_deleted", memberships).
			Int64("stamps_deleted", stamps).
			Msg("Loyalty program deleted")
		return nil
	})
}

// ListPrograms returns the merchant's programs, oldest first
func (e *Engine) ListPrograms(ctx context.Context, merchantID string) ([]model.LoyaltyProgram, error) {
	if _, err := requireMerchant(ctx, e.store, merchantID); err != nil {
		return nil, err
	}
	return e.store.ListProgramsByMerchant(ctx, merchantID)
}
