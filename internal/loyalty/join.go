package loyalty

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

// JoinResult is the outcome of a successful join. LoyaltyProgramID is empty
// for a merchant-level join.
type JoinResult struct {
	Stamp            *model.Stamp
	LoyaltyProgramID string
}

// Join resolves identifier and enrolls the customer in whatever it names
func (e *Engine) Join(ctx context.Context, customerID, identifier string) (*JoinResult, error) {
	start := time.Now()
	res, err := e.Resolve(ctx, identifier)
	if err != nil {
		e.observe("join", start, err)
		return nil, err
	}

	stamp, err := e.JoinResolved(ctx, customerID, res.MerchantID, res.LoyaltyProgramID)
	if err != nil {
		return nil, err
	}
	return &JoinResult{Stamp: stamp, LoyaltyProgramID: res.LoyaltyProgramID}, nil
}

// JoinResolved enrolls the customer with the merchant, or with one of its
// programs when programID is set, and returns the enrollment stamp.
//
// A program join records a membership and reuses the oldest stamp that
// already counts toward the program, otherwise it grants one merchant-wide
// stamp. A merchant join fails once the customer holds any stamp with the
// merchant.
func (e *Engine) JoinResolved(ctx context.Context, customerID, merchantID, programID string) (stamp *model.Stamp, err error) {
	ctx, span := e.tracer.Start(ctx, "loyalty.Join")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("merchant.id", merchantID),
		attribute.String("program.id", programID),
	)

	start := time.Now()
	defer func() {
		e.observe("join", start, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	err = e.store.Atomic(ctx, lockKey(customerID, merchantID), func(q repository.Queries) error {
		if _, err := requireCustomer(ctx, q, customerID); err != nil {
			return err
		}
		if _, err := requireMerchant(ctx, q, merchantID); err != nil {
			return err
		}

		var err error
		if programID == "" {
			stamp, err = e.joinMerchant(ctx, q, customerID, merchantID)
		} else {
			stamp, err = e.joinProgram(ctx, q, customerID, merchantID, programID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return stamp, nil
}

func (e *Engine) joinMerchant(ctx context.Context, q repository.Queries, customerID, merchantID string) (*model.Stamp, error) {
	existing, err := q.FirstStamp(ctx, customerID, merchantID)
	if err == nil {
		return nil, fmt.Errorf("%w: stamp %s", ErrAlreadyJoinedMerchant, existing.ID)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	return e.createStamp(ctx, q, customerID, merchantID, "")
}

func (e *Engine) joinProgram(ctx context.Context, q repository.Queries, customerID, merchantID, programID string) (*model.Stamp, error) {
	if _, err := requireProgram(ctx, q, programID, merchantID); err != nil {
		return nil, err
	}

	_, err := q.GetMembership(ctx, customerID, programID)
	if err == nil {
		return nil, ErrAlreadyJoinedProgram
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	err = q.CreateMembership(ctx, &model.Membership{
		CustomerID:       customerID,
		LoyaltyProgramID: programID,
		CreatedAt:        e.now(),
	})
	if errors.Is(err, model.ErrDuplicate) {
		return nil, ErrAlreadyJoinedProgram
	}
	if err != nil {
		return nil, err
	}

	// Any stamp that already counts toward the program is the enrollment credit.
	eligible, err := q.ListRedeemableStamps(ctx, customerID, merchantID, programID)
	if err != nil {
		return nil, err
	}
	if len(eligible) > 0 {
		return &eligible[0], nil
	}

	// Enrollment credit is merchant-wide so later program joins share it.
	return e.createStamp(ctx, q, customerID, merchantID, "")
}

func (e *Engine) createStamp(ctx context.Context, q repository.Queries, customerID, merchantID, programID string) (*model.Stamp, error) {
	stamp := &model.Stamp{
		ID:         e.newID(),
		MerchantID: merchantID,
		CustomerID: customerID,
		CreatedAt:  e.now(),
	}
	if programID != "" {
		stamp.LoyaltyProgramID = &programID
	}
	if err := q.CreateStamp(ctx, stamp); err != nil {
		return nil, err
	}
	return stamp, nil
}
