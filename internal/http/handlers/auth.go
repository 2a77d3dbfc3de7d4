package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/http/middlewares"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
)

type AuthService interface {
	Login(ctx context.Context, username, password string) (services.LoginResult, error)
	Logout(ctx context.Context, token string)
	Register(ctx context.Context, username, password string) (user.User, error)
	RequestPasswordReset(ctx context.Context, username string) error
	ValidateResetToken(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type AuthHandler struct {
	svc          AuthService
	log          *slog.Logger
	secureCookie bool
	now          func() time.Time
}

func NewAuthHandler(svc AuthService, log *slog.Logger, secureCookie bool) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AuthHandler{svc: svc, log: log, secureCookie: secureCookie, now: time.Now}
}

// Home sends the caller to the dashboard or to the login form.
func (h *AuthHandler) Home(ctx *gin.Context) {
	if _, ok := middlewares.IdentityFromContext(ctx); ok {
		ctx.Redirect(http.StatusFound, "/dashboard")
		return
	}
	ctx.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandler) LoginForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"form": loginForm})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !Bind(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.svc.Login(cctx, req.Username, req.Password)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	h.setSessionCookie(ctx, res.Session.Token, res.Session.ExpiresAt)

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": res.Session.Token,
		"expiresAt":   res.Session.ExpiresAt,
		"user":        res.User,
		"notices":     notice("success", "Login realizado com sucesso!"),
	})
}

func (h *AuthHandler) Logout(ctx *gin.Context) {
	raw := middlewares.TokenFromRequest(ctx)

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	h.svc.Logout(cctx, raw)

	h.clearSessionCookie(ctx)
	ctx.JSON(http.StatusOK, gin.H{
		"notices": notice("info", "Você saiu do sistema."),
	})
}

func (h *AuthHandler) RegisterForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"form": registerForm})
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	u, err := h.svc.Register(cctx, req.Username, req.Password)
	if err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"user":    u,
		"notices": notice("success", "Usuário cadastrado com sucesso!"),
	})
}

func (h *AuthHandler) RecoverForm(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"form": recoverForm})
}

// RecoverPassword answers the same way whether or not the user exists.
func (h *AuthHandler) RecoverPassword(ctx *gin.Context) {
	var req resettoken.RecoverRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.RequestPasswordReset(cctx, req.Username); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"notices": notice("info", "Se o usuário existir, o link de redefinição será enviado."),
	})
}

func (h *AuthHandler) ResetForm(ctx *gin.Context) {
	token := ctx.Param("token")

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.ValidateResetToken(cctx, token); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"form": resetForm(token)})
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var req resettoken.ResetRequest

	if !Bind(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.svc.ResetPassword(cctx, token, req.Password); err != nil {
		respondServiceError(ctx, h.log, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"notices": notice("success", "Senha redefinida com sucesso!"),
	})
}

func (h *AuthHandler) setSessionCookie(ctx *gin.Context, raw string, expiresAt time.Time) {
	maxAge := int(expiresAt.Sub(h.now()).Seconds())

	ctx.SetSameSite(http.SameSiteLaxMode)

	ctx.SetCookie(
		middlewares.SessionCookieName,
		raw,
		maxAge,
		"/",
		"",
		h.secureCookie,
		true, // HttpOnly.
	)
}

func (h *AuthHandler) clearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(
		middlewares.SessionCookieName,
		"",
		-1,
		"/",
		"",
		h.secureCookie,
		true,
	)
}
