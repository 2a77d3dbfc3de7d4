package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/archive"
	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/export"
	"github.com/Matheusaraujo007/chamados/internal/repo"
)

type ExportService struct {
	store    repo.Store
	loc      *time.Location
	archiver archive.Archiver
	log      *slog.Logger
	metrics  Metrics
}

func NewExportService(store repo.Store, loc *time.Location, archiver archive.Archiver, log *slog.Logger, metrics Metrics) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	if archiver == nil {
		archiver = archive.Nop{}
	}
	if log == nil {
		log = slog.Default()
	}
	return &ExportService{store: store, loc: loc, archiver: archiver, log: log, metrics: metricsOrNop(metrics)}
}

type ExportResult struct {
	Report      export.Report
	Filename    string
	ContentType string
	Body        []byte
}

func (s *ExportService) ExportAll(ctx context.Context) (ExportResult, error) {
	if _, ok := actorctx.IdentityFrom(ctx); !ok {
		return ExportResult{}, ErrUnauthenticated
	}

	tickets, err := s.store.Tickets().List(ctx, ticket.ListFilter{Order: ticket.OldestFirst})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export list: %w", err)
	}

	return s.render(ctx, export.AllTickets(tickets, s.loc), "")
}

// ExportByStatus fails with ticket.ErrInvalidStatus for anything but the two
// known statuses.
func (s *ExportService) ExportByStatus(ctx context.Context, rawStatus string) (ExportResult, error) {
	if _, ok := actorctx.IdentityFrom(ctx); !ok {
		return ExportResult{}, ErrUnauthenticated
	}

	st := ticket.Status(rawStatus)
	if !st.IsValid() {
		return ExportResult{}, fmt.Errorf("%w: %w: %q", ErrValidation, ticket.ErrInvalidStatus, rawStatus)
	}

	tickets, err := s.store.Tickets().List(ctx, ticket.ListFilter{Status: &st, Order: ticket.OldestFirst})
	if err != nil {
		return ExportResult{}, fmt.Errorf("export list: %w", err)
	}

	return s.render(ctx, export.TicketsByStatus(tickets, st, s.loc), string(st))
}

func (s *ExportService) render(ctx context.Context, report export.Report, status string) (ExportResult, error) {
	body, err := export.RenderPDFBytes(report)
	if err != nil {
		return ExportResult{}, fmt.Errorf("render pdf: %w", err)
	}

	s.metrics.ObserveExport(status, len(report.Pages))

	key, err := s.archiver.Store(ctx, report.Filename, export.ContentType, body)
	if err != nil {
		s.log.WarnContext(ctx, "export.archive_failed", "filename", report.Filename, "err", err)
	} else if key != "" {
		s.log.InfoContext(ctx, "export.archived", "key", key)
	}

	s.log.InfoContext(ctx, "export.generated", "filename", report.Filename, "pages", len(report.Pages), "by", callerName(ctx))

	return ExportResult{
		Report:      report,
		Filename:    report.Filename,
		ContentType: export.ContentType,
		Body:        body,
	}, nil
}
