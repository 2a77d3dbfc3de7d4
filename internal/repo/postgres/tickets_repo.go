package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/jackc/pgx/v5"
)

type TicketsRepo struct {
	db  DBTX
	obs Observer
}

const ticketColumns = `id, setor, descricao, prioridade, status, data_hora`

func scanTicket(row pgx.Row, t *ticket.Ticket) error {
	return row.Scan(&t.ID, &t.Sector, &t.Description, &t.Priority, &t.Status, &t.CreatedAt)
}

func (r *TicketsRepo) Get(ctx context.Context, id int64) (ticket.Ticket, error) {
	var t ticket.Ticket

	err := r.obs.ObserveDB("tickets.get", func() error {
		return scanTicket(r.db.QueryRow(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = $1`, id), &t)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ticket.Ticket{}, ticket.ErrNotFound
		}
		return ticket.Ticket{}, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *TicketsRepo) List(ctx context.Context, filter ticket.ListFilter) ([]ticket.Ticket, error) {
	query, args := buildTicketListQuery(filter)

	out := make([]ticket.Ticket, 0)

	err := r.obs.ObserveDB("tickets.list", func() error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var t ticket.Ticket
			if err := scanTicket(rows, &t); err != nil {
				return err
			}
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func buildTicketListQuery(filter ticket.ListFilter) (string, []any) {
	var conds []string
	var args []any

	argsPosition := 1

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*filter.Status))
		argsPosition++
	}

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("data_hora >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("data_hora <= $%d", argsPosition))
		args = append(args, *filter.To)
	}

	query := `SELECT ` + ticketColumns + ` FROM tickets`

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	if filter.Order == ticket.OldestFirst {
		query += " ORDER BY id ASC"
	} else {
		query += " ORDER BY id DESC"
	}

	return query, args
}

func (r *TicketsRepo) Save(ctx context.Context, t *ticket.Ticket) error {
	if t.ID == 0 {
		err := r.obs.ObserveDB("tickets.insert", func() error {
			return r.db.QueryRow(ctx,
				`INSERT INTO tickets (setor, descricao, prioridade, status, data_hora)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				t.Sector, t.Description, t.Priority, t.Status, t.CreatedAt,
			).Scan(&t.ID)
		})
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		return nil
	}

	var affected int64
	err := r.obs.ObserveDB("tickets.update", func() error {
		res, err := r.db.Exec(ctx,
			`UPDATE tickets
				SET setor = $2,
					descricao = $3,
					prioridade = $4,
					status = $5
			WHERE id = $1`,
			t.ID, t.Sector, t.Description, t.Priority, t.Status,
		)
		affected = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if affected == 0 {
		return ticket.ErrNotFound
	}
	return nil
}

func (r *TicketsRepo) Delete(ctx context.Context, id int64) error {
	var affected int64

	err := r.obs.ObserveDB("tickets.delete", func() error {
		res, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
		affected = res.RowsAffected()
		return err
	})

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	// if no rows were deleted as a result return a not found error
	if affected == 0 {
		return ticket.ErrNotFound
	}

	return nil
}
