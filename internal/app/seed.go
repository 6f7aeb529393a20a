package app

import (
	"context"
	"time"

	"finboard/internal/identity"
	"finboard/internal/security/password"
)

const (
	demoUsername = "demo"
	demoEmail    = "demo@example.com"
	demoPassword = "SecureDemo123!"
	demoFullName = "Demo User"
)

// EnsureDemoUser creates the demo account if it does not exist yet. The hash
// is computed here rather than baked into a migration so the bcrypt cost
// stays current.
func EnsureDemoUser(ctx context.Context, users identity.Store, log Logger) error {
	taken, err := users.UsernameTaken(ctx, demoUsername)
	if err != nil {
		return err
	}
	if taken {
		return nil
	}

	hash, err := password.Hash(demoPassword)
	if err != nil {
		return err
	}

	fullName := demoFullName
	u, err := users.Create(ctx, identity.CreateUserInput{
		Username:     demoUsername,
		Email:        demoEmail,
		PasswordHash: hash,
		FullName:     &fullName,
		Now:          time.Now().UTC(),
	})
	if err != nil {
		// A concurrent replica may have won the race; that is fine.
		if identity.IsConflict(err) {
			return nil
		}
		return err
	}

	log.Info("seed.demo_user.created", "user_id", u.ID)
	return nil
}
