package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/archive"
	"github.com/Matheusaraujo007/chamados/internal/auth"
	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/config"
	"github.com/Matheusaraujo007/chamados/internal/db"
	httpx "github.com/Matheusaraujo007/chamados/internal/http"
	"github.com/Matheusaraujo007/chamados/internal/notifications"
	"github.com/Matheusaraujo007/chamados/internal/observability"
	"github.com/Matheusaraujo007/chamados/internal/repo"
	"github.com/Matheusaraujo007/chamados/internal/repo/memory"
	"github.com/Matheusaraujo007/chamados/internal/repo/postgres"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/Matheusaraujo007/chamados/internal/sessions"
	"github.com/Matheusaraujo007/chamados/internal/worker"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load the config set up
	cfg, cfgErr := config.Load()

	// start up the observability logger
	log := observability.NewLogger(cfg.Env)

	if cfgErr != nil {
		log.Error("invalid config", "err", cfgErr)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	traceService := ""
	if cfg.OTelEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName: cfg.OTelServiceName,
			Environment: cfg.Env,
			Endpoint:    cfg.OTelEndpoint,
			Insecure:    cfg.OTelInsecure,
			SampleRatio: cfg.OTelSampleRatio,
		})
		if err != nil {
			log.Error("otel init failed", "err", err)
		} else {
			traceService = cfg.OTelServiceName
			defer func() {
				tctx, cancel := config.WithTimeout(5 * time.Second)
				defer cancel()
				_ = shutdownTracer(tctx)
			}()
		}
	}

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	loc := clock.MustLoadLocation(cfg.Timezone)
	clk := clock.NewSystem(loc)

	store, closeStore, err := openStore(ctx, cfg, prom, log)
	if err != nil {
		log.Error("store init failed", "store", cfg.Store, "err", err)
		os.Exit(1)
	}
	defer closeStore()

	if cfg.AdminUsername != "" && cfg.AdminPassword != "" {
		created, err := db.EnsureAdminUser(ctx, store, cfg.AdminUsername, cfg.AdminPassword, clk.Now())
		if err != nil {
			log.Error("admin seed failed", "err", err)
			os.Exit(1)
		}
		if created {
			log.Info("admin user created", "username", cfg.AdminUsername)
		}
	}

	secret := cfg.SessionSecret
	if secret == "" {
		// Validate only lets this through in dev and test; sessions die with the process
		secret = uuid.NewString()
		log.Warn("SESSION_SECRET not set, using an ephemeral secret")
	}
	tokens := auth.NewManager(secret, cfg.SessionTTL())

	var (
		revoker  sessions.Revoker
		sweepers []worker.Sweeper
	)
	if cfg.RedisAddr != "" {
		rdb := sessions.NewRedisClient(sessions.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		revoker = sessions.NewRedisRevoker(rdb, nil)
	} else {
		mem := sessions.NewMemoryRevoker(nil)
		revoker = mem
		sweepers = append(sweepers, mem)
	}

	notifier := notifications.NewProtectedNotifier(
		notifications.NewLogNotifier(log),
		notifications.ProtectedNotifierConfig{},
	)

	var archiver archive.Archiver = archive.Nop{}
	if cfg.S3Bucket != "" {
		s3a, err := archive.NewS3(ctx, archive.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			log.Error("s3 archive init failed", "err", err)
			os.Exit(1)
		}
		archiver = s3a
	}

	authSvc := services.NewAuthService(store, tokens, revoker, notifier, clk, services.AuthConfig{
		ResetTokenTTL: cfg.ResetTokenTTL(),
		PublicBaseURL: cfg.PublicBaseURL,
	}, log, prom)

	// the memory store and memory revoker only live here, so this process
	// cleans them up itself
	var purger worker.TokenPurger
	if cfg.Store == config.StoreMemory {
		purger = store.ResetTokens()
	}
	if purger != nil || len(sweepers) > 0 {
		j := worker.New(worker.Config{Interval: cfg.JanitorInterval(), WorkerID: "api"}, purger, clk, log, prom, sweepers...)
		go func() { _ = j.Run(ctx) }()
	}

	// set up routers with the log
	router := httpx.NewRouter(httpx.Dependencies{
		Log:            log,
		Env:            cfg.Env,
		Auth:           authSvc,
		Tickets:        services.NewTicketService(store, clk, loc, log),
		Exports:        services.NewExportService(store, loc, archiver, log, prom),
		Ready:          readiness(store, revoker),
		Prom:           prom,
		Metrics:        promhttp.Handler(),
		TraceService:   traceService,
		CORSOrigins:    cfg.CORSAllowedOrigins,
		TrustedProxies: cfg.TrustedProxies,
		SecureCookies:  cfg.IsProd(),
	})

	// server set up
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "store", cfg.Store)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}

func openStore(ctx context.Context, cfg config.Config, prom *observability.Prom, log *slog.Logger) (repo.Store, func(), error) {
	if cfg.Store == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}, nil
	}

	pool, err := db.NewPool(cfg.DBURL)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}

	if err := db.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	return postgres.NewStore(pool, prom), pool.Close, nil
}

func readiness(store repo.Store, revoker sessions.Revoker) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := store.Ping(ctx); err != nil {
			return fmt.Errorf("store: %w", err)
		}
		if err := revoker.Ping(ctx); err != nil {
			return fmt.Errorf("sessions: %w", err)
		}
		return nil
	}
}
