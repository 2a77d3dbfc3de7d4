package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/repo"
)

// tables is the data a transaction snapshots and restores.
type tables struct {
	users   map[int64]user.User
	tickets map[int64]ticket.Ticket
	tokens  map[int64]resettoken.ResetToken

	userSeq   int64
	ticketSeq int64
	tokenSeq  int64
}

func (t *tables) clone() tables {
	return tables{
		users:     maps.Clone(t.users),
		tickets:   maps.Clone(t.tickets),
		tokens:    maps.Clone(t.tokens),
		userSeq:   t.userSeq,
		ticketSeq: t.ticketSeq,
		tokenSeq:  t.tokenSeq,
	}
}

type state struct {
	mu sync.Mutex
	tables
}

// Store keeps everything in process memory. A transaction holds the single
// store lock for its whole duration, so transactions are fully serialized.
type Store struct {
	st   *state
	inTx bool
}

var _ repo.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		st: &state{tables: tables{
			users:   make(map[int64]user.User),
			tickets: make(map[int64]ticket.Ticket),
			tokens:  make(map[int64]resettoken.ResetToken),
		}},
	}
}

// lock is a no-op inside a transaction, which already holds the mutex.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) Users() repo.UserRepository             { return &UsersRepo{s: s} }
func (s *Store) Tickets() repo.TicketRepository         { return &TicketsRepo{s: s} }
func (s *Store) ResetTokens() repo.ResetTokenRepository { return &ResetTokensRepo{s: s} }

func (s *Store) WithTx(ctx context.Context, fn func(tx repo.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	s.st.mu.Lock()
	defer s.st.mu.Unlock()

	snap := s.st.clone()

	defer func() {
		if p := recover(); p != nil {
			s.st.tables = snap
			panic(p)
		}
		if err != nil {
			s.st.tables = snap
		}
	}()

	return fn(&Store{st: s.st, inTx: true})
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}
