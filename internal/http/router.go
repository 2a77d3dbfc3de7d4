package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/http/handlers"
	"github.com/Matheusaraujo007/chamados/internal/http/middlewares"
	"github.com/Matheusaraujo007/chamados/internal/observability"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

type AuthService interface {
	handlers.AuthService
	middlewares.Authenticator
}

type Dependencies struct {
	Log *slog.Logger
	Env string

	Auth    AuthService
	Tickets handlers.TicketService
	Exports handlers.ExportService

	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error

	// Optional observability.
	Prom           *observability.Prom
	Metrics        http.Handler
	TraceService   string
	CORSOrigins    []string
	// TrustedProxies may set X-Forwarded-For; empty means none, so
	// rate limits key on the socket address.
	TrustedProxies []string
	SecureCookies  bool
	LoginRateLimit int
	LoginWindow    time.Duration
}

func NewRouter(deps Dependencies) *gin.Engine {
	if deps.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.LoginRateLimit <= 0 {
		deps.LoginRateLimit = 10
	}
	if deps.LoginWindow <= 0 {
		deps.LoginWindow = time.Minute
	}

	r := gin.New()
	if err := r.SetTrustedProxies(deps.TrustedProxies); err != nil {
		deps.Log.Error("invalid trusted proxies, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware
	r.Use(gin.Recovery())
	if deps.TraceService != "" {
		r.Use(otelgin.Middleware(deps.TraceService))
	}
	r.Use(middlewares.RequestID())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	authMW := middlewares.NewAuthMiddleware(deps.Auth, func(err error) bool {
		return errors.Is(err, services.ErrUnauthenticated)
	})
	r.Use(authMW.LoadIdentity())
	r.Use(middlewares.RequestLogger(deps.Log))

	// health
	h := handlers.NewHealthHandler(deps.Ready)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Log, deps.SecureCookies)
	ticketsHandler := handlers.NewTicketsHandler(deps.Tickets, deps.Log)
	exportHandler := handlers.NewExportHandler(deps.Exports, deps.Log)

	loginLimiter := middlewares.NewRateLimiter(deps.LoginRateLimit, deps.LoginWindow)
	recoverLimiter := middlewares.NewRateLimiter(deps.LoginRateLimit, deps.LoginWindow)

	r.GET("/", authHandler.Home)
	r.GET("/login", authHandler.LoginForm)
	r.POST("/login", loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.Login)
	r.GET("/logout", authHandler.Logout)

	r.GET("/recover_password", authHandler.RecoverForm)
	r.POST("/recover_password", recoverLimiter.RateLimiterMiddleware(middlewares.KeyByIP), authHandler.RecoverPassword)
	r.GET("/reset_password/:token", authHandler.ResetForm)
	r.POST("/reset_password/:token", authHandler.ResetPassword)

	admin := r.Group("/", authMW.RequireRole(user.RoleAdmin))
	admin.GET("/register", authHandler.RegisterForm)
	admin.POST("/register", authHandler.Register)

	authed := r.Group("/", authMW.RequireAuth())
	authed.GET("/dashboard", ticketsHandler.Dashboard)
	authed.POST("/create_ticket", ticketsHandler.Create)
	authed.GET("/mark_resolved/:id", ticketsHandler.Resolve)
	authed.POST("/mark_resolved/:id", ticketsHandler.Resolve)
	authed.GET("/delete_ticket/:id", ticketsHandler.Delete)
	authed.POST("/delete_ticket/:id", ticketsHandler.Delete)
	authed.GET("/export_pdf", exportHandler.ExportAll)
	authed.GET("/export_pdf_status/:status", exportHandler.ExportByStatus)

	return r
}
