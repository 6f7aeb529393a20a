// Package identity owns the canonical user record and its persistence
// boundary.
package identity

import (
	"context"
	"time"
)

// User is the canonical identity record.
//
// Username and Email are unique and immutable after creation (username by
// policy, email for account-security reasons). PasswordHash must never leave
// the server: the public projection lives at the API layer and omits it.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	FullName     *string
	IsActive     bool
	CreatedAt    time.Time
}

// CreateUserInput describes a registration request after validation and
// password hashing.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	FullName     *string
	Now          time.Time
}

// Store is the user-directory persistence boundary.
//
// The uniqueness of username and email is ultimately enforced by storage
// constraints; UsernameTaken/EmailTaken are fast-path checks only, and Create
// must map a constraint violation to a ConflictError even when the fast path
// saw no duplicate.
type Store interface {
	Create(ctx context.Context, in CreateUserInput) (User, error)
	GetByID(ctx context.Context, id int64) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)

	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)

	UpdatePasswordHash(ctx context.Context, id int64, hash string) error
	UpdateFullName(ctx context.Context, id int64, fullName *string) (User, error)

	// Delete removes the user and, in the same transaction, every refresh
	// token the user owns. Irreversible; there is no soft delete.
	Delete(ctx context.Context, id int64) error
}
