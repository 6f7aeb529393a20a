package identity

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	FullNameMaxLength = 100
)

var usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// ValidateUsername checks the username shape: 3-30 characters, alphanumeric
// or underscore. Usernames are stored and compared case-sensitively.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < UsernameMinLength || n > UsernameMaxLength {
		return ErrInvalidInput
	}
	if !usernameRe.MatchString(username) {
		return ErrInvalidInput
	}
	return nil
}

// ValidateEmail checks that email parses as a bare address (no display name).
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrInvalidInput
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidInput
	}
	return nil
}

// ValidateFullName bounds the optional display name.
func ValidateFullName(fullName *string) error {
	if fullName == nil {
		return nil
	}
	if utf8.RuneCountInString(*fullName) > FullNameMaxLength {
		return ErrInvalidInput
	}
	return nil
}
