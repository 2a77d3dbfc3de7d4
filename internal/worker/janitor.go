package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/clock"
)

// TokenPurger deletes reset tokens that expired before now.
type TokenPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper drops expired entries from an in-process cache.
type Sweeper interface {
	Sweep() int
}

type Metrics interface {
	ObserveJanitor(purged int64, swept int, err error)
}

type nopMetrics struct{}

func (nopMetrics) ObserveJanitor(int64, int, error) {}

type Config struct {
	Interval time.Duration
	// RunTimeout bounds a single pass.
	RunTimeout time.Duration
	WorkerID   string
}

type Result struct {
	Purged int64
	Swept  int
}

type Janitor struct {
	cfg      Config
	tokens   TokenPurger
	sweepers []Sweeper
	clock    clock.Clock
	log      *slog.Logger
	metrics  Metrics

	ready    atomic.Bool
	failures int

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a janitor. tokens may be nil when only caches need sweeping.
func New(cfg Config, tokens TokenPurger, clk clock.Clock, log *slog.Logger, metrics Metrics, sweepers ...Sweeper) *Janitor {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}

	return &Janitor{
		cfg:      cfg,
		tokens:   tokens,
		sweepers: sweepers,
		clock:    clk,
		log:      log.With("worker_id", cfg.WorkerID),
		metrics:  metrics,
		sleep:    sleepCtx,
	}
}

func (j *Janitor) Ready() bool {
	return j.ready.Load()
}

// Run makes a pass immediately and then on every tick until ctx is done.
// Failed passes delay the next one with exponential backoff.
func (j *Janitor) Run(ctx context.Context) error {
	j.ready.Store(true)
	defer j.ready.Store(false)

	ticker := time.NewTicker(j.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := j.RunOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				break
			}

			delay := ExponentialBackoff(j.failures - 1)
			j.log.Warn("janitor.backoff", "attempt", j.failures, "delay", delay.String())

			if err := j.sleep(ctx, delay); err != nil {
				break
			}
			continue
		}

		select {
		case <-ctx.Done():
			j.log.Info("janitor received shutdown signal")
			return nil
		case <-ticker.C:
		}
	}

	j.log.Info("janitor received shutdown signal")
	return nil
}

// RunOnce purges expired reset tokens and sweeps the registered caches.
func (j *Janitor) RunOnce(ctx context.Context) (Result, error) {
	var res Result

	runCtx, cancel := context.WithTimeout(ctx, j.cfg.RunTimeout)
	defer cancel()

	if j.tokens != nil {
		n, err := j.tokens.DeleteExpired(runCtx, j.clock.Now())
		if err != nil {
			j.failures++
			j.metrics.ObserveJanitor(0, 0, err)
			j.log.Error("janitor.purge_failed", "err", err, "attempt", j.failures)
			return res, fmt.Errorf("purge reset tokens: %w", err)
		}
		res.Purged = n
	}

	for _, s := range j.sweepers {
		res.Swept += s.Sweep()
	}

	j.failures = 0
	j.metrics.ObserveJanitor(res.Purged, res.Swept, nil)

	if res.Purged > 0 || res.Swept > 0 {
		j.log.Info("janitor.pass", "tokens_purged", res.Purged, "sessions_swept", res.Swept)
	} else {
		j.log.Debug("janitor.pass", "tokens_purged", 0, "sessions_swept", 0)
	}

	return res, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
