package memory

import (
	"context"
	"sort"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
)

type TicketsRepo struct {
	s *Store
}

func (r *TicketsRepo) Get(ctx context.Context, id int64) (ticket.Ticket, error) {
	unlock := r.s.lock()
	defer unlock()

	t, ok := r.s.st.tickets[id]
	if !ok {
		return ticket.Ticket{}, ticket.ErrNotFound
	}
	return t, nil
}

func (r *TicketsRepo) List(ctx context.Context, filter ticket.ListFilter) ([]ticket.Ticket, error) {
	unlock := r.s.lock()
	defer unlock()

	out := make([]ticket.Ticket, 0, len(r.s.st.tickets))
	for _, t := range r.s.st.tickets {
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.From != nil && t.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && t.CreatedAt.After(*filter.To) {
			continue
		}
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if filter.Order == ticket.OldestFirst {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *TicketsRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	unlock := r.s.lock()
	defer unlock()

	if t.ID == 0 {
		r.s.st.ticketSeq++
		t.ID = r.s.st.ticketSeq
		r.s.st.tickets[t.ID] = *t
		return nil
	}

	if _, ok := r.s.st.tickets[t.ID]; !ok {
		return ticket.ErrNotFound
	}
	r.s.st.tickets[t.ID] = *t
	return nil
}

func (r *TicketsRepo) Delete(ctx context.Context, id int64) error {
	unlock := r.s.lock()
	defer unlock()

	if _, ok := r.s.st.tickets[id]; !ok {
		return ticket.ErrNotFound
	}
	delete(r.s.st.tickets, id)
	return nil
}
