package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
)

type ExportService interface {
	ExportAll(ctx context.Context) (services.ExportResult, error)
	ExportByStatus(ctx context.Context, status string) (services.ExportResult, error)
}

type ExportHandler struct {
	svc ExportService
	log *slog.Logger
}

func NewExportHandler(svc ExportService, log *slog.Logger) *ExportHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ExportHandler{svc: svc, log: log}
}

func (h *ExportHandler) ExportAll(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	res, err := h.svc.ExportAll(cctx)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	sendAttachment(ctx, res)
}

func (h *ExportHandler) ExportByStatus(ctx *gin.Context) {
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 10*time.Second)
	defer cancel()

	res, err := h.svc.ExportByStatus(cctx, ctx.Param("status"))
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	sendAttachment(ctx, res)
}

func sendAttachment(ctx *gin.Context, res services.ExportResult) {
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	ctx.Header("Cache-Control", "no-store")
	ctx.Data(http.StatusOK, res.ContentType, res.Body)
}
