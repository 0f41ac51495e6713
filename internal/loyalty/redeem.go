package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kkkkikiki/punchcard/internal/metrics"
	"github.com/kkkkikiki/punchcard/internal/model"
	"github.com/kkkkikiki/punchcard/internal/notify"
	"github.com/kkkkikiki/punchcard/internal/repository"
)

// RedeemResult is returned by a successful redemption
type RedeemResult struct {
	Message    string
	Redemption *model.Redemption
}

// Redeem exchanges exactly program.Threshold of the customer's stamps for the
// program's reward. The oldest eligible stamps are consumed; any surplus stays.
func (e *Engine) Redeem(ctx context.Context, customerID, programID string) (res *RedeemResult, err error) {
	ctx, span := e.tracer.Start(ctx, "loyalty.Redeem")
	defer span.End()
	span.SetAttributes(
		attribute.String("customer.id", customerID),
		attribute.String("program.id", programID),
	)

	start := time.Now()
	defer func() {
		e.observe("redeem", start, err)
		if err != nil {
			span.RecordError(err)
		}
	}()

	program, err := requireProgram(ctx, e.store, programID, "")
	if err != nil {
		return nil, err
	}

	var redemption *model.Redemption
	err = e.store.Atomic(ctx, lockKey(customerID, program.MerchantID), func(q repository.Queries) error {
		// Re-read under the lock so a concurrent delete or threshold change is seen.
		program, err := requireProgram(ctx, q, programID, "")
		if err != nil {
			return err
		}

		stamps, err := q.ListRedeemableStamps(ctx, customerID, program.MerchantID, program.ID)
		if err != nil {
			return err
		}
		if len(stamps) < program.Threshold {
			return fmt.Errorf("%w: have %d, need %d", ErrInsufficientStamps, len(stamps), program.Threshold)
		}

		ids := make([]string, program.Threshold)
		for i := range ids {
			ids[i] = stamps[i].ID
		}
		deleted, err := q.DeleteStamps(ctx, ids)
		if err != nil {
			return err
		}
		if deleted != int64(program.Threshold) {
			return fmt.Errorf("consumed %d stamps, expected %d", deleted, program.Threshold)
		}

		redemption = &model.Redemption{
			ID:               e.newID(),
			CustomerID:       customerID,
			MerchantID:       program.MerchantID,
			LoyaltyProgramID: program.ID,
			RewardName:       program.RewardName,
			StampsConsumed:   program.Threshold,
			CreatedAt:        e.now(),
		}
		return q.CreateRedemption(ctx, redemption)
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordStampsConsumed(redemption.StampsConsumed)
	zerolog.Ctx(ctx).Info().
		Str("customer_id", customerID).
		Str("program_id", programID).
		Int("stamps_consumed", redemption.StampsConsumed).
		Msg("Reward redeemed")

	e.notify(ctx, notify.Notification{
		Kind:       notify.KindRewardRedeemed,
		CustomerID: customerID,
		Title:      "Reward redeemed",
		Body:       fmt.Sprintf("You redeemed %s for %d stamps.", redemption.RewardName, redemption.StampsConsumed),
	})

	return &RedeemResult{
		Message:    fmt.Sprintf("Reward redeemed successfully! Enjoy your %s.", redemption.RewardName),
		Redemption: redemption,
	}, nil
}
