package token

import "errors"

var (
	// ErrInvalidToken is returned for any verification failure: bad signature,
	// malformed input, expired token, or a type mismatch. Callers get no
	// further detail on purpose.
	ErrInvalidToken = errors.New("invalid token")

	// ErrConfig is returned for invalid codec configuration.
	ErrConfig = errors.New("invalid token config")
)
