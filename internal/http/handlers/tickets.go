package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
)

type TicketService interface {
	Create(ctx context.Context, req ticket.CreateTicketRequest) (ticket.Ticket, error)
	List(ctx context.Context, in services.ListInput) (services.ListResult, error)
	Resolve(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type TicketsHandler struct {
	svc TicketService
	log *slog.Logger
}

func NewTicketsHandler(svc TicketService, log *slog.Logger) *TicketsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TicketsHandler{svc: svc, log: log}
}

// Dashboard lists tickets, newest first, honoring status, start_date and
// end_date query parameters.
func (h *TicketsHandler) Dashboard(ctx *gin.Context) {
	in := services.ListInput{
		Status:    ctx.Query("status"),
		StartDate: ctx.Query("start_date"),
		EndDate:   ctx.Query("end_date"),
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.List(cctx, in)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	notices := make([]Notice, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		notices = append(notices, Notice{Level: "danger", Message: w})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": res.Tickets,
		"count": len(res.Tickets),
		"filters": gin.H{
			"status":     in.Status,
			"start_date": in.StartDate,
			"end_date":   in.EndDate,
		},
		"statuses":   []ticket.Status{ticket.StatusPending, ticket.StatusResolved},
		"priorities": []ticket.Priority{ticket.PriorityLow, ticket.PriorityMedium, ticket.PriorityHigh},
		"notices":    notices,
	})
}

func (h *TicketsHandler) Create(ctx *gin.Context) {
	var req ticket.CreateTicketRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.svc.Create(cctx, req)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"ticket":  t,
		"notices": notice("success", "Chamado criado com sucesso!"),
	})
}

func (h *TicketsHandler) Resolve(ctx *gin.Context) {
	id, ok := ticketID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	changed, err := h.svc.Resolve(cctx, id)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	notices := []Notice{}
	if changed {
		notices = notice("info", "Chamado marcado como resolvido.")
	}

	ctx.JSON(http.StatusOK, gin.H{"resolved": changed, "notices": notices})
}

func (h *TicketsHandler) Delete(ctx *gin.Context) {
	id, ok := ticketID(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	deleted, err := h.svc.Delete(cctx, id)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	notices := []Notice{}
	if deleted {
		notices = notice("warning", "Chamado excluído.")
	}

	ctx.JSON(http.StatusOK, gin.H{"deleted": deleted, "notices": notices})
}

func ticketID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		RespondError(ctx, http.StatusBadRequest, "invalid_id", "ID de chamado inválido.", nil)
		return 0, false
	}
	return id, true
}
