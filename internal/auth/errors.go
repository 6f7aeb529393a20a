package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers a missing user, an inactive user, and a
	// failed password check. The three cases are deliberately
	// indistinguishable to the caller to prevent username enumeration.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken covers every refresh-token failure mode: expired,
	// revoked, unknown, or malformed. One unified error, no detail.
	ErrInvalidToken = errors.New("invalid token")

	// ErrUnauthorized is returned for a missing or invalid access token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for a valid token bound to an inactive account.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is the kind behind ValidationError.
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports malformed input caught before it reaches storage.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Msg)
	}
	return fmt.Sprintf("%v: %s: %s", ErrValidation, e.Field, e.Msg)
}

func (e ValidationError) Unwrap() error { return ErrValidation }

// IsValidation reports whether err represents a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
