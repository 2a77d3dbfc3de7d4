package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
	"github.com/jackc/pgx/v5"
)

type ResetTokensRepo struct {
	db   DBTX
	obs  Observer
	lock bool
}

func (r *ResetTokensRepo) GetByHash(ctx context.Context, tokenHash string) (resettoken.ResetToken, error) {
	query := `SELECT id, token_hash, username, expires_at, created_at
		FROM reset_tokens
		WHERE token_hash = $1`

	// Locks the row so two concurrent resets cannot both consume it
	if r.lock {
		query += ` FOR UPDATE`
	}

	var t resettoken.ResetToken

	err := r.obs.ObserveDB("reset_tokens.get_by_hash", func() error {
		return r.db.QueryRow(ctx, query, tokenHash).Scan(
			&t.ID,
			&t.TokenHash,
			&t.Username,
			&t.ExpiresAt,
			&t.CreatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return resettoken.ResetToken{}, resettoken.ErrNotFound
		}
		return resettoken.ResetToken{}, fmt.Errorf("db error: %w", err)
	}

	return t, nil
}

func (r *ResetTokensRepo) Save(ctx context.Context, t *resettoken.ResetToken) error {
	err := r.obs.ObserveDB("reset_tokens.insert", func() error {
		return r.db.QueryRow(ctx,
			`INSERT INTO reset_tokens (token_hash, username, expires_at, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			t.TokenHash, t.Username, t.ExpiresAt, t.CreatedAt,
		).Scan(&t.ID)
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *ResetTokensRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.obs.ObserveDB("reset_tokens.delete", func() error {
		res, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE id = $1`, id)
		affected = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return resettoken.ErrNotFound
	}
	return nil
}

func (r *ResetTokensRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var affected int64

	err := r.obs.ObserveDB("reset_tokens.delete_expired", func() error {
		res, err := r.db.Exec(ctx, `DELETE FROM reset_tokens WHERE expires_at <= $1`, now)
		affected = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return affected, nil
}
