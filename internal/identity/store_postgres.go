package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store over PostgreSQL.
//
// The pgx pool is owned by the caller; this store must not close it.
// Uniqueness of username/email is enforced by the unique constraints on the
// users table; application-level existence checks are a fast path only.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed user directory.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, errors.New("identity: nil pool")
	}
	return &PostgresStore{pool: pool}, nil
}

const userColumns = `id, username, email, password_hash, full_name, is_active, created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.FullName,
		&u.IsActive,
		&u.CreatedAt,
	)
	return u, err
}

// Create inserts a new user. A unique-constraint violation surfaces as a
// ConflictError naming the offending field.
func (s *PostgresStore) Create(ctx context.Context, in CreateUserInput) (User, error) {
	const op = "identity.Create"

	u, err := scanUser(s.pool.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash, full_name, is_active, created_at)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING `+userColumns+`
	`, in.Username, in.Email, in.PasswordHash, in.FullName, in.Now))
	if err != nil {
		if field, ok := uniqueViolationField(err); ok {
			return User{}, ConflictError{Op: op, Field: field}
		}
		return User{}, err
	}
	return u, nil
}

// GetByID loads a user by id.
func (s *PostgresStore) GetByID(ctx context.Context, id int64) (User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = $1
	`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.GetByID", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// GetByUsername loads a user by its exact (case-sensitive) username.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE username = $1
	`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.GetByUsername", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// UsernameTaken reports whether a user with the given username exists.
func (s *PostgresStore) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)
	`, username).Scan(&taken)
	return taken, err
}

// EmailTaken reports whether a user with the given email exists.
func (s *PostgresStore) EmailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)
	`, email).Scan(&taken)
	return taken, err
}

// UpdatePasswordHash replaces the stored credential hash.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2 WHERE id = $1
	`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: "identity.UpdatePasswordHash", Resource: "user"}
	}
	return nil
}

// UpdateFullName mutates the display name only; username and email are
// immutable for the lifetime of the account.
func (s *PostgresStore) UpdateFullName(ctx context.Context, id int64, fullName *string) (User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET full_name = $2 WHERE id = $1
		RETURNING `+userColumns+`
	`, id, fullName))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, NotFoundError{Op: "identity.UpdateFullName", Resource: "user"}
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// Delete removes the user and all of its refresh tokens in one transaction.
func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	const op = "identity.Delete"

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "user"}
	}

	return tx.Commit(ctx)
}

// uniqueViolationField maps a Postgres unique violation (23505) to the
// logical field name carried by the violated constraint.
func uniqueViolationField(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return "username", true
	case strings.Contains(pgErr.ConstraintName, "email"):
		return "email", true
	default:
		return "", true
	}
}
