package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finboard/internal/identity"
	"finboard/internal/security/password"
	"finboard/internal/security/token"
)

// memUserStore is an in-memory identity.Store for service tests.
type memUserStore struct {
	nextID int64
	users  map[int64]identity.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{nextID: 1, users: make(map[int64]identity.User)}
}

func (m *memUserStore) Create(_ context.Context, in identity.CreateUserInput) (identity.User, error) {
	for _, u := range m.users {
		if u.Username == in.Username {
			return identity.User{}, identity.ConflictError{Op: "mem.Create", Field: "username"}
		}
		if u.Email == in.Email {
			return identity.User{}, identity.ConflictError{Op: "mem.Create", Field: "email"}
		}
	}
	u := identity.User{
		ID:           m.nextID,
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		FullName:     in.FullName,
		IsActive:     true,
		CreatedAt:    in.Now,
	}
	m.nextID++
	m.users[u.ID] = u
	return u, nil
}

func (m *memUserStore) GetByID(_ context.Context, id int64) (identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "mem.GetByID", Resource: "user"}
	}
	return u, nil
}

func (m *memUserStore) GetByUsername(_ context.Context, username string) (identity.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return identity.User{}, identity.NotFoundError{Op: "mem.GetByUsername", Resource: "user"}
}

func (m *memUserStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) EmailTaken(_ context.Context, email string) (bool, error) {
	for _, u := range m.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return identity.NotFoundError{Op: "mem.UpdatePasswordHash", Resource: "user"}
	}
	u.PasswordHash = hash
	m.users[id] = u
	return nil
}

func (m *memUserStore) UpdateFullName(_ context.Context, id int64, fullName *string) (identity.User, error) {
	u, ok := m.users[id]
	if !ok {
		return identity.User{}, identity.NotFoundError{Op: "mem.UpdateFullName", Resource: "user"}
	}
	u.FullName = fullName
	m.users[id] = u
	return u, nil
}

func (m *memUserStore) Delete(_ context.Context, id int64) error {
	if _, ok := m.users[id]; !ok {
		return identity.NotFoundError{Op: "mem.Delete", Resource: "user"}
	}
	delete(m.users, id)
	return nil
}

type memRefreshRecord struct {
	userID    int64
	expiresAt time.Time
	revoked   bool
}

// memRefreshStore is an in-memory RefreshTokenStore keyed by token hash.
type memRefreshStore struct {
	users   *memUserStore
	records map[string]*memRefreshRecord
}

func newMemRefreshStore(users *memUserStore) *memRefreshStore {
	return &memRefreshStore{users: users, records: make(map[string]*memRefreshRecord)}
}

func (m *memRefreshStore) Store(_ context.Context, userID int64, rawToken string, expiresAt, _ time.Time) error {
	m.records[token.HashSHA256Hex(rawToken)] = &memRefreshRecord{userID: userID, expiresAt: expiresAt}
	return nil
}

func (m *memRefreshStore) Resolve(ctx context.Context, rawToken string, now time.Time) (identity.User, error) {
	rec, ok := m.records[token.HashSHA256Hex(rawToken)]
	if !ok || rec.revoked || !rec.expiresAt.After(now) {
		return identity.User{}, ErrInvalidToken
	}
	u, err := m.users.GetByID(ctx, rec.userID)
	if err != nil {
		return identity.User{}, ErrInvalidToken
	}
	return u, nil
}

func (m *memRefreshStore) Revoke(_ context.Context, rawToken string) (bool, error) {
	rec, ok := m.records[token.HashSHA256Hex(rawToken)]
	if !ok || rec.revoked {
		return false, nil
	}
	rec.revoked = true
	return true, nil
}

type testEnv struct {
	svc     *Service
	users   *memUserStore
	refresh *memRefreshStore
	codec   *token.Codec
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	codec, err := token.NewCodec(token.DefaultConfig([]byte("test-secret")))
	require.NoError(t, err)

	users := newMemUserStore()
	refresh := newMemRefreshStore(users)

	return &testEnv{
		svc:     NewService(nil, users, refresh, codec),
		users:   users,
		refresh: refresh,
		codec:   codec,
	}
}

func (e *testEnv) register(t *testing.T, username, email, pw string) identity.User {
	t.Helper()
	u, err := e.svc.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    email,
		Password: pw,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterLoginRefreshLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")
	assert.Equal(t, "alice", u.Username)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "Abcd123!", u.PasswordHash)

	pair, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// Refresh yields a fresh access token but the same refresh token.
	refreshed, err := env.svc.Refresh(ctx, now.Add(time.Minute), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken)

	require.NoError(t, env.svc.Logout(ctx, pair.RefreshToken))

	// The revoked token no longer refreshes, and a second logout fails too.
	_, err = env.svc.Refresh(ctx, now.Add(2*time.Minute), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, env.svc.Logout(ctx, pair.RefreshToken), ErrInvalidToken)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short username", RegisterInput{Username: "ab", Email: "a@example.com", Password: "Abcd123!"}},
		{"bad username chars", RegisterInput{Username: "al ice", Email: "a@example.com", Password: "Abcd123!"}},
		{"bad email", RegisterInput{Username: "alice", Email: "not-an-email", Password: "Abcd123!"}},
		{"weak password", RegisterInput{Username: "alice", Email: "a@example.com", Password: "abcd1234"}},
		{"short password", RegisterInput{Username: "alice", Email: "a@example.com", Password: "Ab1!"}},
		// 39 runes but 109 bytes: must fail validation, not leak a bcrypt
		// length error out of the hasher.
		{"password over bcrypt byte limit", RegisterInput{Username: "alice", Email: "a@example.com", Password: "Aa1!" + strings.Repeat("€", 35)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.svc.Register(ctx, tt.in)
			assert.True(t, IsValidation(err), "want validation error, got %v", err)
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.register(t, "alice", "alice@example.com", "Abcd123!")

	_, err := env.svc.Register(ctx, RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "Abcd123!",
	})
	require.True(t, identity.IsConflict(err))
	var conflict identity.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	_, err = env.svc.Register(ctx, RegisterInput{
		Username: "alice2", Email: "alice@example.com", Password: "Abcd123!",
	})
	require.True(t, identity.IsConflict(err))
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
}

func TestLoginFailuresIndistinguishable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")

	_, unknownErr := env.svc.Login(ctx, now, "nobody", "Abcd123!")
	_, wrongPwErr := env.svc.Login(ctx, now, "alice", "Wrong123!")

	inactive := env.users.users[u.ID]
	inactive.IsActive = false
	env.users.users[u.ID] = inactive
	_, inactiveErr := env.svc.Login(ctx, now, "alice", "Abcd123!")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongPwErr, ErrInvalidCredentials)
	assert.ErrorIs(t, inactiveErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongPwErr.Error())
	assert.Equal(t, wrongPwErr.Error(), inactiveErr.Error())
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")
	access, _, err := env.codec.IssueAccess(u.ID, u.Username, now)
	require.NoError(t, err)

	_, err = env.svc.Refresh(ctx, now, access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	env.register(t, "alice", "alice@example.com", "Abcd123!")
	pair, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)

	// Just before expiry the token still refreshes; past it, never again.
	_, err = env.svc.Refresh(ctx, now.Add(7*24*time.Hour-time.Minute), pair.RefreshToken)
	require.NoError(t, err)
	_, err = env.svc.Refresh(ctx, now.Add(7*24*time.Hour+time.Minute), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")
	pair, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)

	got, err := env.svc.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	// Refresh tokens never pass the access gate.
	_, err = env.svc.Authenticate(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)

	inactive := env.users.users[u.ID]
	inactive.IsActive = false
	env.users.users[u.ID] = inactive
	_, err = env.svc.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")
	before := env.users.users[u.ID].PasswordHash

	// Wrong current password leaves the stored hash untouched.
	err := env.svc.ChangePassword(ctx, u.ID, "Wrong123!", "Efgh456!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, before, env.users.users[u.ID].PasswordHash)

	// New password equal to the current one is rejected.
	err = env.svc.ChangePassword(ctx, u.ID, "Abcd123!", "Abcd123!")
	assert.True(t, IsValidation(err))

	// A weak new password is rejected.
	err = env.svc.ChangePassword(ctx, u.ID, "Abcd123!", "weak")
	assert.True(t, IsValidation(err))

	require.NoError(t, env.svc.ChangePassword(ctx, u.ID, "Abcd123!", "Efgh456!"))
	assert.NotEqual(t, before, env.users.users[u.ID].PasswordHash)

	_, err = env.svc.Login(ctx, now, "alice", "Abcd123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, now, "alice", "Efgh456!")
	assert.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")

	name := "Alice Liddell"
	got, err := env.svc.UpdateProfile(ctx, u.ID, &name)
	require.NoError(t, err)
	require.NotNil(t, got.FullName)
	assert.Equal(t, name, *got.FullName)

	got, err = env.svc.UpdateProfile(ctx, u.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, got.FullName)

	long := make([]byte, identity.FullNameMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	tooLong := string(long)
	_, err = env.svc.UpdateProfile(ctx, u.ID, &tooLong)
	assert.True(t, IsValidation(err))
}

func TestDeleteAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	u := env.register(t, "alice", "alice@example.com", "Abcd123!")
	pair, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)

	err = env.svc.DeleteAccount(ctx, u.ID, "Abcd123!", "delete")
	assert.True(t, IsValidation(err))

	err = env.svc.DeleteAccount(ctx, u.ID, "Wrong123!", DeleteConfirmation)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, env.svc.DeleteAccount(ctx, u.ID, "Abcd123!", DeleteConfirmation))

	_, err = env.svc.CurrentUser(ctx, u.ID)
	assert.True(t, identity.IsNotFound(err))
	_, err = env.svc.Refresh(ctx, now, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestDummyVerifyBurnsOnUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	// The service precomputes a bcrypt digest at construction for the
	// unknown-user path; it must be a verifiable digest, not garbage.
	require.NotEmpty(t, env.svc.dummyHash)
	assert.True(t, password.Verify("dummy-password-for-timing-only", env.svc.dummyHash))
}

func TestRevokeIsMonotonic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	env.register(t, "alice", "alice@example.com", "Abcd123!")
	pair, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)

	found, err := env.refresh.Revoke(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = env.refresh.Revoke(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.False(t, found)

	_, err = env.refresh.Resolve(ctx, pair.RefreshToken, now)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoginTwiceIssuesIndependentRefreshTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	now := time.Now()

	env.register(t, "alice", "alice@example.com", "Abcd123!")
	first, err := env.svc.Login(ctx, now, "alice", "Abcd123!")
	require.NoError(t, err)
	second, err := env.svc.Login(ctx, now.Add(time.Second), "alice", "Abcd123!")
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// Revoking one session leaves the other intact.
	require.NoError(t, env.svc.Logout(ctx, first.RefreshToken))
	_, err = env.svc.Refresh(ctx, now.Add(time.Minute), second.RefreshToken)
	assert.NoError(t, err)
	_, err = env.svc.Refresh(ctx, now.Add(time.Minute), first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

var errBoom = errors.New("boom")

// failingRefreshStore forces the storage-error path distinct from a miss.
type failingRefreshStore struct{ memRefreshStore }

func (f *failingRefreshStore) Resolve(context.Context, string, time.Time) (identity.User, error) {
	return identity.User{}, errBoom
}

func TestRefreshPropagatesStorageErrors(t *testing.T) {
	codec, err := token.NewCodec(token.DefaultConfig([]byte("test-secret")))
	require.NoError(t, err)

	users := newMemUserStore()
	svc := NewService(nil, users, &failingRefreshStore{}, codec)

	raw, _, err := codec.IssueRefresh(1, "alice", time.Now())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), time.Now(), raw)
	assert.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}
