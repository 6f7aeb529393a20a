// Package password provides one-way credential hashing and the password
// strength policy applied at registration and password change.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash hashes a password with bcrypt and returns the self-describing encoded
// digest (algorithm, cost, and salt are embedded in the output).
func Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify reports whether password matches the stored digest. Malformed or
// unsupported digests verify as false; this function never fails outward.
func Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
