// Package repo defines the storage ports used by the services. Each entity has
// its own repository; Store groups them and runs transactions.
package repo

import (
	"context"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
)

type UserRepository interface {
	Get(ctx context.Context, id int64) (user.User, error)
	GetByUsername(ctx context.Context, username string) (user.User, error)
	// Save inserts when u.ID is zero and assigns the new ID, otherwise updates
	// the password hash and role. Duplicate usernames yield user.ErrUsernameTaken.
	Save(ctx context.Context, u *user.User) error
}

type TicketRepository interface {
	Get(ctx context.Context, id int64) (ticket.Ticket, error)
	List(ctx context.Context, filter ticket.ListFilter) ([]ticket.Ticket, error)
	Save(ctx context.Context, t *ticket.Ticket) error
	// Delete returns ticket.ErrNotFound when no row was removed.
	Delete(ctx context.Context, id int64) error
}

type ResetTokenRepository interface {
	// GetByHash locks the row when called inside a transaction.
	GetByHash(ctx context.Context, tokenHash string) (resettoken.ResetToken, error)
	Save(ctx context.Context, t *resettoken.ResetToken) error
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type Store interface {
	Users() UserRepository
	Tickets() TicketRepository
	ResetTokens() ResetTokenRepository

	// WithTx runs fn against a transactional view of the store. fn's error
	// rolls everything back; nested calls reuse the outer transaction.
	WithTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}
