package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/notify"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

// Progress is a customer's standing in one program
type Progress struct {
	Stamps    int
	Threshold int
	Remaining int
	Joined    bool
}

// IssueStamp gives the customer one stamp with the merchant, tagged with
// programID when set, and notifies the customer.
func (e *Engine) IssueStamp(ctx context.Context, merchantID, customerID, programID string) (stamp *model.Stamp, err error) {
	ctx, span := e.tracer.Start(ctx, "loyalty.IssueStamp")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("merchant.id", merchantID),
		attribute.String("program.id", programID),
	)

	start := time.Now()
	defer func() {
		e.observe("issue_stamp", start, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	var (
		merchant *model.Merchant
		program  *model.LoyaltyProgram
		balance  int
	)
	err = e.store.Atomic(ctx, lockKey(customerID, merchantID), func(q repository.Queries) error {
		var err error
		if _, err = requireCustomer(ctx, q, customerID); err != nil {
			return err
		}
		if merchant, err = requireMerchant(ctx, q, merchantID); err != nil {
			return err
		}
		if programID != "" {
			if program, err = requireProgram(ctx, q, programID, merchantID); err != nil {
				return err
			}
		}

		if stamp, err = e.createStamp(ctx, q, customerID, merchantID, programID); err != nil {
			return err
		}

		if program != nil {
			stamps, err := q.ListRedeemableStamps(ctx, customerID, merchantID, programID)
			if err != nil {
				return err
			}
			balance = len(stamps)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf("You earned a stamp at %s.", merchant.DisplayName)
	if program != nil {
		body = fmt.Sprintf("You earned a stamp at %s: %d of %d toward %s.",
			merchant.DisplayName, min(balance, program.Threshold), program.Threshold, program.RewardName)
	}
	e.notify(ctx, notify.Notification{
		Kind:       notify.KindStampEarned,
		CustomerID: customerID,
		Title:      "Stamp earned",
		Body:       body + " " + JoinLink(e.frontendBase, merchantID),
	})

	return stamp, nil
}

// GetProgress reports how close the customer is to the program's reward
func (e *Engine) GetProgress(ctx context.Context, customerID, programID string) (*Progress, error) {
	program, err := requireProgram(ctx, e.store, programID, "")
	if err != nil {
		return nil, err
	}
	if _, err := requireCustomer(ctx, e.store, customerID); err != nil {
		return nil, err
	}

	stamps, err := e.store.ListRedeemableStamps(ctx, customerID, program.MerchantID, programID)
	if err != nil {
		return nil, err
	}

	joined := true
	if _, err := e.store.GetMembership(ctx, customerID, programID); errors.Is(err, model.ErrNotFound) {
		joined = false
	} else if err != nil {
		return nil, err
	}

	return &Progress{
		Stamps:    len(stamps),
		Threshold: program.Threshold,
		Remaining: max(program.Threshold-len(stamps), 0),
		Joined:    joined,
	}, nil
}

// DisassociateCustomer removes every stamp the customer holds with the
// merchant and their memberships to its programs.
func (e *Engine) DisassociateCustomer(ctx context.Context, merchantID, customerID string) (stamps, memberships int64, err error) {
	err = e.store.Atomic(ctx, lockKey(customerID, merchantID), func(q repository.Queries) error {
		if _, err := requireMerchant(ctx, q, merchantID); err != nil {
			return err
		}

		var err error
		if memberships, err = q.DeleteMembershipsForMerchant(ctx, customerID, merchantID); err != nil {
			return err
		}
		stamps, err = q.DeleteStampsForMerchant(ctx, customerID, merchantID)
		return err
	})
	return stamps, memberships, err
}
