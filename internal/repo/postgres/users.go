package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/jackc/pgx/v5"
)

type UsersRepo struct {
	db  DBTX
	obs Observer
}

const userColumns = `id, username, password_hash, role, created_at`

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
}

func (r *UsersRepo) Get(ctx context.Context, id int64) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.get", func() error {
		return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) GetByUsername(ctx context.Context, username string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.get_by_username", func() error {
		return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username), &u)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *UsersRepo) Save(ctx context.Context, u *user.User) error {
	if u.ID == 0 {
		err := r.obs.ObserveDB("users.insert", func() error {
			return r.db.QueryRow(ctx,
				`INSERT INTO users (username, password_hash, role, created_at)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				u.Username, u.PasswordHash, u.Role, u.CreatedAt,
			).Scan(&u.ID)
		})
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrUsernameTaken
			}
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	var tag int64
	err := r.obs.ObserveDB("users.update", func() error {
		res, err := r.db.Exec(ctx,
			`UPDATE users SET password_hash = $2, role = $3 WHERE id = $1`,
			u.ID, u.PasswordHash, u.Role,
		)
		tag = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag == 0 {
		return user.ErrNotFound
	}
	return nil
}
