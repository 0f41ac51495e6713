package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"github.com/kkkkikiki/punchcard/internal/loyalty"
)

// toConnectError maps engine errors onto connect codes. Unexpected failures
// are logged and hidden from the caller.
func toConnectError(ctx context.Context, err error) error {
	var verr *loyalty.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, loyalty.ErrInvalidIdentifier):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, loyalty.ErrCustomerNotFound),
		errors.Is(err, loyalty.ErrMerchantNotFound),
		errors.Is(err, loyalty.ErrProgramNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, loyalty.ErrAlreadyJoinedProgram),
		errors.Is(err, loyalty.ErrAlreadyJoinedMerchant),
		errors.Is(err, loyalty.ErrEmailTaken):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, loyalty.ErrInsufficientStamps):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	default:
		zerolog.Ctx(ctx).Error().Err(err).Msg("request failed")
		return connect.NewError(connect.CodeInternal, errors.New("internal error"))
	}
}
