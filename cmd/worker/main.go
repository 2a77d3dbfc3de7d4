package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/config"
	"github.com/Matheusaraujo007/chamados/internal/db"
	"github.com/Matheusaraujo007/chamados/internal/observability"
	"github.com/Matheusaraujo007/chamados/internal/repo/postgres"
	"github.com/Matheusaraujo007/chamados/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, cfgErr := config.Load()
	log := observability.NewLogger(cfg.Env)

	if cfgErr != nil {
		log.Error("invalid config", "err", cfgErr)
		os.Exit(1)
	}

	if cfg.Store != config.StorePostgres {
		log.Error("worker needs STORE=postgres; the api cleans up the memory store itself")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)
	store := postgres.NewStore(pool, prom)

	host, _ := os.Hostname()
	workerID := host + "-" + strconv.Itoa(os.Getpid())

	j := worker.New(worker.Config{
		Interval:   cfg.JanitorInterval(),
		RunTimeout: 10 * time.Second,
		WorkerID:   workerID,
	}, store.ResetTokens(), clock.NewSystem(clock.MustLoadLocation(cfg.Timezone)), log, prom)

	gin.SetMode(gin.ReleaseMode)
	health := j.HealthHandler(store.Ping)
	health.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerHealthPort),
		Handler:           health,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("worker health server failed", "err", err)
		}
	}()

	log.Info("worker has started", "worker_id", workerID, "interval", cfg.JanitorInterval().String())

	if err := j.Run(ctx); err != nil {
		log.Error("worker stopped with error", "err", err)
	}

	sctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)

	log.Info("worker shutdown complete")
}
