// Package auth implements the authentication service: registration, login,
// token refresh, logout, password change, profile update, and account
// deletion.
//
// The service is the only component that touches the user directory and the
// refresh token store. The credential hasher and token codec are pure,
// stateless utilities it calls.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"finboard/internal/identity"
	"finboard/internal/security/password"
	"finboard/internal/security/token"
)

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	// ExpiresIn is the access-token lifetime in seconds.
	ExpiresIn int64
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName *string
}

// Service orchestrates all authentication operations. Each call is an
// independent unit of work; no state is carried across requests.
type Service struct {
	log     *slog.Logger
	users   identity.Store
	refresh RefreshTokenStore
	codec   *token.Codec
	policy  password.Policy

	// dummyHash is verified against when the user lookup misses, so a login
	// for an unknown username costs roughly as much as one for a known user.
	dummyHash string
}

// NewService constructs a Service with the default password policy.
func NewService(log *slog.Logger, users identity.Store, refresh RefreshTokenStore, codec *token.Codec) *Service {
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		log:     log,
		users:   users,
		refresh: refresh,
		codec:   codec,
		policy:  password.DefaultPolicy(),
	}

	if hash, err := password.Hash("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}

	return s
}

// Register validates input, checks username/email availability, hashes the
// password, and inserts the user. The storage unique constraints remain the
// authoritative guard: a race past the fast-path checks still surfaces as a
// ConflictError, never a crash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (identity.User, error) {
	const op = "auth.Register"

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if err := identity.ValidateUsername(in.Username); err != nil {
		return identity.User{}, ValidationError{Field: "username", Msg: "3-30 characters, alphanumeric or underscore"}
	}
	if err := identity.ValidateEmail(in.Email); err != nil {
		return identity.User{}, ValidationError{Field: "email", Msg: "invalid email address"}
	}
	if err := identity.ValidateFullName(in.FullName); err != nil {
		return identity.User{}, ValidationError{Field: "full_name", Msg: "at most 100 characters"}
	}
	if err := s.policy.Validate(in.Password); err != nil {
		return identity.User{}, ValidationError{Field: "password", Msg: err.Error()}
	}

	// Fast-path availability checks; the insert below is the real guard.
	if taken, err := s.users.UsernameTaken(ctx, in.Username); err != nil {
		return identity.User{}, err
	} else if taken {
		return identity.User{}, identity.ConflictError{Op: op, Field: "username"}
	}
	if taken, err := s.users.EmailTaken(ctx, in.Email); err != nil {
		return identity.User{}, err
	} else if taken {
		return identity.User{}, identity.ConflictError{Op: op, Field: "email"}
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return identity.User{}, err
	}

	u, err := s.users.Create(ctx, identity.CreateUserInput{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     in.FullName,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		return identity.User{}, err
	}

	s.log.Info("auth.register.ok", "user_id", u.ID)
	return u, nil
}

// Login verifies credentials and issues an access/refresh token pair. The
// refresh token's hash is persisted so it can later be revoked. A missing
// user, an inactive user, and a bad password all yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, now time.Time, username, pw string) (TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if identity.IsNotFound(err) {
			// Burn comparable CPU so the miss is not observable via timing.
			if s.dummyHash != "" {
				_ = password.Verify(pw, s.dummyHash)
			}
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if !password.Verify(pw, u.PasswordHash) || !u.IsActive {
		return TokenPair{}, ErrInvalidCredentials
	}

	access, _, err := s.codec.IssueAccess(u.ID, u.Username, now)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(u.ID, u.Username, now)
	if err != nil {
		return TokenPair{}, err
	}

	if err := s.refresh.Store(ctx, u.ID, refresh, refreshExp, now); err != nil {
		return TokenPair{}, err
	}

	s.log.Info("auth.login.ok", "user_id", u.ID)
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Refresh resolves a raw refresh token and issues a new access token for the
// owning user. The same refresh token is returned unchanged: this design does
// not rotate refresh tokens (see DESIGN.md), so a token stays valid until its
// natural expiry or an explicit logout.
func (s *Service) Refresh(ctx context.Context, now time.Time, rawRefresh string) (TokenPair, error) {
	// Cheap stateless screen before the store round-trip.
	if _, err := s.codec.Verify(rawRefresh, token.TypeRefresh); err != nil {
		return TokenPair{}, ErrInvalidToken
	}

	u, err := s.refresh.Resolve(ctx, rawRefresh, now)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return TokenPair{}, ErrInvalidToken
		}
		return TokenPair{}, err
	}

	access, _, err := s.codec.IssueAccess(u.ID, u.Username, now)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{
		AccessToken:  access,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
	}, nil
}

// Logout revokes a refresh token. It fails with ErrInvalidToken when no
// matching unrevoked record exists; revocation never un-does.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	found, err := s.refresh.Revoke(ctx, rawRefresh)
	if err != nil {
		return err
	}
	if !found {
		return ErrInvalidToken
	}
	return nil
}

// Authenticate verifies an access token and loads the bound user. Used by the
// HTTP boundary for bearer-authenticated endpoints. An invalid token or a
// missing user maps to ErrUnauthorized; an inactive account to ErrForbidden.
func (s *Service) Authenticate(ctx context.Context, rawAccess string) (identity.User, error) {
	claims, err := s.codec.Verify(rawAccess, token.TypeAccess)
	if err != nil {
		return identity.User{}, ErrUnauthorized
	}
	id, err := claims.UserID()
	if err != nil {
		return identity.User{}, ErrUnauthorized
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if identity.IsNotFound(err) {
			return identity.User{}, ErrUnauthorized
		}
		return identity.User{}, err
	}
	if !u.IsActive {
		return identity.User{}, ErrForbidden
	}
	return u, nil
}

// ChangePassword verifies the current password, validates the new one, and
// rehashes. The new password must differ from the current clear value.
func (s *Service) ChangePassword(ctx context.Context, userID int64, current, next string) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !password.Verify(current, u.PasswordHash) {
		return ErrInvalidCredentials
	}
	if err := s.policy.Validate(next); err != nil {
		return ValidationError{Field: "new_password", Msg: err.Error()}
	}
	if password.Verify(next, u.PasswordHash) {
		return ValidationError{Field: "new_password", Msg: "must differ from current password"}
	}

	hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return err
	}

	s.log.Info("auth.change_password.ok", "user_id", userID)
	return nil
}

// UpdateProfile mutates the display name only. Username and email stay
// immutable for the lifetime of the account.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, fullName *string) (identity.User, error) {
	if err := identity.ValidateFullName(fullName); err != nil {
		return identity.User{}, ValidationError{Field: "full_name", Msg: "at most 100 characters"}
	}
	return s.users.UpdateFullName(ctx, userID, fullName)
}

// DeleteConfirmation is the literal string a caller must supply to delete
// an account.
const DeleteConfirmation = "DELETE"

// DeleteAccount verifies the password and the confirmation literal, then
// removes the user's refresh tokens and the user record. Irreversible.
func (s *Service) DeleteAccount(ctx context.Context, userID int64, pw, confirmation string) error {
	if confirmation != DeleteConfirmation {
		return ValidationError{Field: "confirmation", Msg: "must be exactly " + DeleteConfirmation}
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !password.Verify(pw, u.PasswordHash) {
		return ErrInvalidCredentials
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.log.Info("auth.delete_account.ok", "user_id", userID)
	return nil
}

// CurrentUser loads the user bound to an authenticated request.
func (s *Service) CurrentUser(ctx context.Context, userID int64) (identity.User, error) {
	return s.users.GetByID(ctx, userID)
}
