package password

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Symbols is the fixed set of special characters accepted by the policy.
const Symbols = "@$!%*?&"

var (
	ErrTooShort   = errors.New("password too short")
	ErrTooLong    = errors.New("password too long")
	ErrNeedLower  = errors.New("password must contain a lowercase letter")
	ErrNeedUpper  = errors.New("password must contain an uppercase letter")
	ErrNeedDigit  = errors.New("password must contain a digit")
	ErrNeedSymbol = errors.New("password must contain a special character (" + Symbols + ")")
)

// Policy controls password strength validation.
type Policy struct {
	MinLength int
	MaxLength int
}

// DefaultPolicy returns the baseline policy: at least 8 characters, at most
// 72 bytes, with at least one lowercase letter, one uppercase letter, one
// digit, and one symbol.
func DefaultPolicy() Policy {
	return Policy{MinLength: 8, MaxLength: 72}
}

// Validate checks password against the policy. It does not mutate input.
//
// MinLength counts runes; MaxLength counts bytes, because bcrypt rejects
// inputs over 72 bytes and a multibyte password can exceed that while well
// under 72 runes.
func (p Policy) Validate(password string) error {
	if utf8.RuneCountInString(password) < p.MinLength {
		return ErrTooShort
	}
	if p.MaxLength > 0 && len(password) > p.MaxLength {
		return ErrTooLong
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(Symbols, r):
			hasSymbol = true
		}
	}

	switch {
	case !hasLower:
		return ErrNeedLower
	case !hasUpper:
		return ErrNeedUpper
	case !hasDigit:
		return ErrNeedDigit
	case !hasSymbol:
		return ErrNeedSymbol
	}
	return nil
}
