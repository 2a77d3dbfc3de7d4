package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/http/middlewares"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	RequestID string      `json:"requestId,omitempty"`
	Details   interface{} `json:"details,omitempty"`
}

// Notice is a user-facing message attached to a successful response.
type Notice struct {
	Level   string `json:"level"` // success | info | warning | danger
	Message string `json:"message"`
}

func notice(level, message string) []Notice {
	return []Notice{{Level: level, Message: message}}
}

func requestIDFrom(ctx *gin.Context) string {
	if s := ctx.GetString(middlewares.CtxRequestID); s != "" {
		return s
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, code, message string, details interface{}) {
	ctx.AbortWithStatusJSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			RequestID: requestIDFrom(ctx),
			Details:   details,
		},
	})
}

func RespondBadRequest(ctx *gin.Context, message string, details interface{}) {
	RespondError(ctx, http.StatusBadRequest, "invalid_request", message, details)
}

func RespondUnAuthorized(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusUnauthorized, code, message, nil)
}

func RespondForbidden(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusForbidden, "forbidden", message, nil)
}

func RespondInternal(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusInternalServerError, "internal_error", message, nil)
}

func RespondConflict(ctx *gin.Context, code, message string) {
	RespondError(ctx, http.StatusConflict, code, message, nil)
}

func RespondInvalidToken(ctx *gin.Context) {
	RespondError(ctx, http.StatusBadRequest, "invalid_token", "Token inválido ou expirado.", nil)
}

// respondServiceError maps service and domain errors onto the error envelope.
// Unclassified errors are logged and reported as internal errors.
func respondServiceError(ctx *gin.Context, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, ticket.ErrInvalidStatus):
		RespondBadRequest(ctx, "Status inválido!", nil)
	case errors.Is(err, services.ErrValidation):
		RespondBadRequest(ctx, "Dados inválidos.", gin.H{"reason": err.Error()})
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, "invalid_credentials", "Usuário ou senha inválidos")
	case errors.Is(err, services.ErrUnauthenticated):
		RespondUnAuthorized(ctx, "unauthorized", "Faça login para continuar.")
	case errors.Is(err, services.ErrForbidden):
		RespondForbidden(ctx, "Apenas administradores podem cadastrar novos usuários.")
	case errors.Is(err, services.ErrUsernameTaken):
		RespondConflict(ctx, "username_taken", "Usuário já existe.")
	case errors.Is(err, services.ErrInvalidToken):
		RespondInvalidToken(ctx)
	default:
		if log == nil {
			log = slog.Default()
		}
		log.ErrorContext(ctx.Request.Context(), "request failed",
			"err", err,
			"route", ctx.FullPath(),
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx, "Erro interno. Tente novamente.")
	}
}
