package token

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Type discriminates access tokens from refresh tokens. A token of one type
// never verifies as the other, regardless of expiry.
type Type string

const (
	// TypeAccess marks a short-lived, stateless access token.
	TypeAccess Type = "access"
	// TypeRefresh marks a longer-lived refresh token whose hash is persisted.
	TypeRefresh Type = "refresh"
)

// Claims is the claim set embedded in every signed token:
// sub (user id as string), username, type, iat, exp, and a random jti.
type Claims struct {
	jwt.RegisteredClaims
	Username  string `json:"username"`
	TokenType Type   `json:"type"`
}

// UserID parses the subject claim back into the numeric user id.
func (c Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Config controls the codec: the process-wide signing secret and both TTLs.
type Config struct {
	// Secret signs all tokens (HMAC-SHA256). It is loaded once at process
	// start; rotating it invalidates every outstanding token.
	Secret []byte

	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// DefaultConfig returns the default validity windows: 15 minutes for access
// tokens and 7 days for refresh tokens.
func DefaultConfig(secret []byte) Config {
	return Config{
		Secret:     secret,
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

// Codec issues and verifies compact signed claim sets. It is a pure,
// stateless utility: no storage access, no side effects beyond CPU cost.
type Codec struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCodec validates cfg and constructs a Codec.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, ErrConfig
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, ErrConfig
	}
	return &Codec{
		secret:     cfg.Secret,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
	}, nil
}

// AccessTTL reports the configured access-token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.accessTTL }

// RefreshTTL reports the configured refresh-token lifetime.
func (c *Codec) RefreshTTL() time.Duration { return c.refreshTTL }

// IssueAccess signs an access token for the given user valid for AccessTTL.
func (c *Codec) IssueAccess(userID int64, username string, now time.Time) (string, time.Time, error) {
	return c.issue(userID, username, TypeAccess, now, c.accessTTL)
}

// IssueRefresh signs a refresh token for the given user valid for RefreshTTL.
func (c *Codec) IssueRefresh(userID int64, username string, now time.Time) (string, time.Time, error) {
	return c.issue(userID, username, TypeRefresh, now, c.refreshTTL)
}

func (c *Codec) issue(userID int64, username string, typ Type, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Username:  username,
		TokenType: typ,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify checks signature, expiry, and the type discriminator. Any failure
// collapses into ErrInvalidToken so callers cannot distinguish a forged token
// from an expired one.
func (c *Codec) Verify(raw string, want Type) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrInvalidToken
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.TokenType != want {
		return Claims{}, ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
