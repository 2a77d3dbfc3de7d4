package db

import (
	"context"
	"errors"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/repo"
	"github.com/Matheusaraujo007/chamados/internal/security"
)

// EnsureAdminUser creates the operator-configured administrator when it does
// not exist yet. Empty credentials skip the bootstrap; an existing account is
// left untouched.
func EnsureAdminUser(ctx context.Context, store repo.Store, username, password string, now time.Time) (bool, error) {
	if username == "" || password == "" {
		return false, nil
	}

	created := false

	err := store.WithTx(ctx, func(tx repo.Store) error {
		_, err := tx.Users().GetByUsername(ctx, username)

		if err == nil {
			return nil
		}

		if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		hash, err := security.HashPassword(password)

		if err != nil {
			return err
		}

		u := user.User{
			Username:     username,
			PasswordHash: hash,
			Role:         user.RoleAdmin,
			CreatedAt:    now,
		}

		if err := tx.Users().Save(ctx, &u); err != nil {
			return err
		}

		created = true
		return nil
	})

	return created, err
}
