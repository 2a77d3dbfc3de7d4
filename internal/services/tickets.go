package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/repo"
)

const (
	dateLayout      = "2006-01-02"
	WarnInvalidDate = "Formato de data inválido."
	maxSectorLen    = 100
)

type TicketService struct {
	store repo.Store
	clock clock.Clock
	loc   *time.Location
	log   *slog.Logger
}

func NewTicketService(store repo.Store, clk clock.Clock, loc *time.Location, log *slog.Logger) *TicketService {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = slog.Default()
	}
	return &TicketService{store: store, clock: clk, loc: loc, log: log}
}

func (s *TicketService) Create(ctx context.Context, req ticket.CreateTicketRequest) (ticket.Ticket, error) {
	if strings.TrimSpace(req.Sector) == "" || strings.TrimSpace(req.Description) == "" || strings.TrimSpace(req.Priority) == "" {
		return ticket.Ticket{}, fmt.Errorf("%w: setor, descricao and prioridade are required", ErrValidation)
	}
	if len([]rune(strings.TrimSpace(req.Sector))) > maxSectorLen {
		return ticket.Ticket{}, fmt.Errorf("%w: setor must have at most %d characters", ErrValidation, maxSectorLen)
	}

	t, err := ticket.NewFromCreateRequest(req, s.clock.Now().In(s.loc))
	if err != nil {
		return ticket.Ticket{}, fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := s.store.Tickets().Save(ctx, &t); err != nil {
		return ticket.Ticket{}, fmt.Errorf("create ticket: %w", err)
	}

	s.log.InfoContext(ctx, "ticket.created", "ticket_id", t.ID, "setor", t.Sector, "prioridade", t.Priority, "by", callerName(ctx))

	return t, nil
}

type ListInput struct {
	Status    string
	StartDate string
	EndDate   string
}

type ListResult struct {
	Tickets  []ticket.Ticket
	Warnings []string
}

// List applies the optional filters. An unknown status is ignored and an
// unparseable date drops that bound with a warning.
func (s *TicketService) List(ctx context.Context, in ListInput) (ListResult, error) {
	var (
		filter   ticket.ListFilter
		warnings []string
	)

	if st, ok := ticket.ParseStatus(in.Status); ok {
		filter.Status = &st
	}

	if raw := strings.TrimSpace(in.StartDate); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, s.loc)
		if err != nil {
			warnings = appendOnce(warnings, WarnInvalidDate)
		} else {
			filter.From = &day
		}
	}

	if raw := strings.TrimSpace(in.EndDate); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, s.loc)
		if err != nil {
			warnings = appendOnce(warnings, WarnInvalidDate)
		} else {
			end := time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, s.loc)
			filter.To = &end
		}
	}

	tickets, err := s.store.Tickets().List(ctx, filter)
	if err != nil {
		return ListResult{}, fmt.Errorf("list tickets: %w", err)
	}

	for i := range tickets {
		tickets[i].CreatedAt = tickets[i].CreatedAt.In(s.loc)
	}

	return ListResult{Tickets: tickets, Warnings: warnings}, nil
}

// Resolve marks the ticket as Resolvido. It reports false when the ticket does
// not exist.
func (s *TicketService) Resolve(ctx context.Context, id int64) (bool, error) {
	caller, ok := actorctx.IdentityFrom(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}

	t, err := s.store.Tickets().Get(ctx, id)
	if errors.Is(err, ticket.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get ticket: %w", err)
	}

	t.Status = ticket.StatusResolved
	if err := s.store.Tickets().Save(ctx, &t); err != nil {
		if errors.Is(err, ticket.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("resolve ticket: %w", err)
	}

	s.log.InfoContext(ctx, "ticket.resolved", "ticket_id", id, "by", caller.Username)

	return true, nil
}

// Delete removes the ticket. It reports false when the ticket does not exist.
func (s *TicketService) Delete(ctx context.Context, id int64) (bool, error) {
	caller, ok := actorctx.IdentityFrom(ctx)
	if !ok {
		return false, ErrUnauthenticated
	}

	err := s.store.Tickets().Delete(ctx, id)
	if errors.Is(err, ticket.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("delete ticket: %w", err)
	}

	s.log.InfoContext(ctx, "ticket.deleted", "ticket_id", id, "by", caller.Username)

	return true, nil
}

func callerName(ctx context.Context) string {
	if id, ok := actorctx.IdentityFrom(ctx); ok {
		return id.Username
	}
	return ""
}

func appendOnce(list []string, msg string) []string {
	for _, m := range list {
		if m == msg {
			return list
		}
	}
	return append(list, msg)
}
