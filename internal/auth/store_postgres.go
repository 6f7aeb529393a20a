package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"finboard/internal/identity"
	"finboard/internal/security/token"
)

// PostgresRefreshTokenStore implements RefreshTokenStore over PostgreSQL.
//
// Records are looked up by SHA-256 hash, never by raw token, so cleartext
// secrets exist only for the duration of the call.
type PostgresRefreshTokenStore struct {
	pool *pgxpool.Pool
}

// NewPostgresRefreshTokenStore creates a Postgres-backed refresh token store.
func NewPostgresRefreshTokenStore(pool *pgxpool.Pool) (*PostgresRefreshTokenStore, error) {
	if pool == nil {
		return nil, errors.New("auth: nil pool")
	}
	return &PostgresRefreshTokenStore{pool: pool}, nil
}

// Store inserts a new unrevoked record for the token's hash.
func (s *PostgresRefreshTokenStore) Store(ctx context.Context, userID int64, rawToken string, expiresAt, now time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, revoked)
		VALUES ($1, $2, $3, $4, FALSE)
	`, userID, token.HashSHA256Hex(rawToken), expiresAt, now)
	return err
}

// Resolve returns the user owning a live record for the token's hash.
func (s *PostgresRefreshTokenStore) Resolve(ctx context.Context, rawToken string, now time.Time) (identity.User, error) {
	var u identity.User
	err := s.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.email, u.password_hash, u.full_name, u.is_active, u.created_at
		FROM refresh_tokens t
		JOIN users u ON u.id = t.user_id
		WHERE t.token_hash = $1
		  AND t.revoked = FALSE
		  AND t.expires_at > $2
	`, token.HashSHA256Hex(rawToken), now).Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsActive,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return identity.User{}, ErrInvalidToken
	}
	if err != nil {
		return identity.User{}, err
	}
	return u, nil
}

// Revoke marks the matching unrevoked record revoked and reports whether one
// existed. Revoking an already-revoked or unknown token is a no-op.
func (s *PostgresRefreshTokenStore) Revoke(ctx context.Context, rawToken string) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked = TRUE
		WHERE token_hash = $1 AND revoked = FALSE
	`, token.HashSHA256Hex(rawToken))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
