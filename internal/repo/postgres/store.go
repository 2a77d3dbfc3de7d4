package postgres

import (
	"context"
	"errors"

	"github.com/Matheusaraujo007/chamados/internal/repo"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Observer wraps a logical DB operation; observability.Prom implements it.
type Observer interface {
	ObserveDB(op string, fn func() error) error
}

type nopObserver struct{}

func (nopObserver) ObserveDB(_ string, fn func() error) error { return fn() }

type Store struct {
	pool *pgxpool.Pool
	db   DBTX
	obs  Observer
	inTx bool
}

var _ repo.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool, obs Observer) *Store {
	if obs == nil {
		obs = nopObserver{}
	}
	return &Store{pool: pool, db: pool, obs: obs}
}

func (s *Store) Users() repo.UserRepository {
	return &UsersRepo{db: s.db, obs: s.obs}
}

func (s *Store) Tickets() repo.TicketRepository {
	return &TicketsRepo{db: s.db, obs: s.obs}
}

func (s *Store) ResetTokens() repo.ResetTokenRepository {
	return &ResetTokensRepo{db: s.db, obs: s.obs, lock: s.inTx}
}

// WithTx commits when fn succeeds and rolls back on error or panic. Panics are rethrown.
func (s *Store) WithTx(ctx context.Context, fn func(tx repo.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(&Store{pool: s.pool, db: tx, obs: s.obs, inTx: true})
	return err
}

func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return s.pool.Ping(ctx)
}

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
