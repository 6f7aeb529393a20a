package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashSHA256Hex returns the SHA-256 hex digest of s.
//
// Refresh tokens are persisted only as this digest, so a compromised store
// cannot directly yield usable tokens.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
