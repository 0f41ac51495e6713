package loyalty

import (
	"errors"
	"fmt"
)

// Domain error kinds. Every failure the engine reports for a known reason
// wraps exactly one of these; anything else is an infrastructure failure.
var (
	ErrInvalidIdentifier     = errors.New("invalid program identifier")
	ErrCustomerNotFound      = errors.New("customer not found")
	ErrMerchantNotFound      = errors.New("merchant not found")
	ErrProgramNotFound       = errors.New("loyalty program not found")
	ErrAlreadyJoinedProgram  = errors.New("customer has already joined this loyalty program")
	ErrAlreadyJoinedMerchant = errors.New("customer has already joined this merchant")
	ErrInsufficientStamps    = errors.New("not enough stamps to redeem this reward")
	ErrEmailTaken            = errors.New("email is already registered")
)

// ValidationError reports a malformed input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// outcome is the metrics label for err
func outcome(err error) string {
	var verr *ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, ErrInvalidIdentifier):
		return "invalid_identifier"
	case errors.Is(err, ErrCustomerNotFound),
		errors.Is(err, ErrMerchantNotFound),
		errors.Is(err, ErrProgramNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyJoinedProgram),
		errors.Is(err, ErrAlreadyJoinedMerchant),
		errors.Is(err, ErrEmailTaken):
		return "conflict"
	case errors.Is(err, ErrInsufficientStamps):
		return "insufficient_stamps"
	default:
		return "error"
	}
}
