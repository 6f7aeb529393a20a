package authapi

import "time"

// Config holds the HTTP-boundary knobs for the auth endpoints.
type Config struct {
	// MaxBodyBytes caps the size of request bodies.
	MaxBodyBytes int64

	// TrustProxy controls whether X-Forwarded-For / X-Real-IP are honored
	// when extracting the client IP for rate limiting.
	TrustProxy bool

	RegisterLimit  int
	RegisterWindow time.Duration

	LoginLimit  int
	LoginWindow time.Duration

	RefreshLimit  int
	RefreshWindow time.Duration
}

// DefaultConfig returns the stock limits: registration 5/hour, login
// 10/15min, refresh 20/hour, 64 KiB bodies.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:   64 << 10,
		RegisterLimit:  5,
		RegisterWindow: time.Hour,
		LoginLimit:     10,
		LoginWindow:    15 * time.Minute,
		RefreshLimit:   20,
		RefreshWindow:  time.Hour,
	}
}
