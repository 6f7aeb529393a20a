package auth

import (
	"context"
	"time"

	"finboard/internal/identity"
)

// RefreshTokenStore persists issued refresh tokens by hash, with expiry and
// revocation state. Raw tokens are hashed at this boundary and never stored.
//
// A stored token is live iff revoked = false and expires_at > now. Expired
// rows are filtered at read time; no sweep is required.
type RefreshTokenStore interface {
	// Store hashes rawToken and inserts a new unrevoked record.
	Store(ctx context.Context, userID int64, rawToken string, expiresAt, now time.Time) error

	// Resolve hashes rawToken, finds a live record, and returns the owning
	// user. Any miss (unknown, revoked, or expired) returns ErrInvalidToken.
	Resolve(ctx context.Context, rawToken string, now time.Time) (identity.User, error)

	// Revoke hashes rawToken and marks the matching unrevoked record revoked.
	// It reports whether such a record existed; revocation is monotonic and
	// a miss is not an error.
	Revoke(ctx context.Context, rawToken string) (bool, error)
}
