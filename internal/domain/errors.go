package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness constraint was hit.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation marks missing or malformed input.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized indicates the request carries no valid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the actor lacks rights over the resource.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates the request conflicts with the current state of the resource.
	ErrConflict = errors.New("conflict")
	// ErrVersionConflict is returned by conditional writes whose expected version is stale.
	ErrVersionConflict = errors.New("version conflict")

	ErrInvalidKind       = fmt.Errorf("%w: kind must be Product or Accessory", ErrValidation)
	ErrAlreadyCancelled  = fmt.Errorf("%w: order already cancelled", ErrConflict)
	ErrInvalidTransition = fmt.Errorf("%w: status transition not allowed", ErrConflict)
	ErrAlreadyReviewed   = fmt.Errorf("%w: item already reviewed by user", ErrConflict)
	ErrPaymentRejected   = errors.New("payment rejected")
)

// Validationf builds an ErrValidation with a detail message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
