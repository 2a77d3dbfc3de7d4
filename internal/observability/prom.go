package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chamados"

type Prom struct {
	RequestsTotal    *prometheus.CounterVec
	RequestsDuration *prometheus.HistogramVec
	InFlight         *prometheus.GaugeVec
	// DB
	DbQueryDuration *prometheus.HistogramVec
	DbErrorsTotal   *prometheus.CounterVec

	// Domain
	LoginsTotal     *prometheus.CounterVec
	ExportsTotal    *prometheus.CounterVec
	ExportPages     prometheus.Histogram
	ResetsRequested prometheus.Counter

	// Janitor (worker)
	JanitorRuns   *prometheus.CounterVec
	TokensPurged  prometheus.Counter
	SessionsSwept prometheus.Counter
}

func NewProm(reg prometheus.Registerer) *Prom {
	p := &Prom{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestsDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency distributions.",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"method", "route", "status"},
		),
		InFlight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_in_flight_requests",
				Help:      "Current number of in-flight HTTP requests.",
			},
			[]string{"method", "route"},
		),
		DbQueryDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "query_duration_seconds",
				Help:      "DB operation latency (logical op, not raw SQL)",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.35, 0.5, 1, 2, 5},
			},
			[]string{"op", "status"},
		),
		DbErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "db",
				Name:      "errors_total",
				Help:      "DB errors by logical op and class.",
			},
			[]string{"op", "class"},
		),

		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "logins_total",
				Help:      "Login attempts by result.",
			},
			[]string{"result"}, // result=ok|invalid
		),
		ExportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "reports_total",
				Help:      "Generated PDF reports by status filter.",
			},
			[]string{"status"}, // status=all|Pendente|Resolvido
		),
		ExportPages: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "export",
				Name:      "pages",
				Help:      "Pages per generated report.",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
			},
		),
		ResetsRequested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "auth",
				Name:      "password_resets_requested_total",
				Help:      "Password reset requests accepted.",
			},
		),

		JanitorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "janitor",
				Name:      "runs_total",
				Help:      "Janitor passes by result.",
			},
			[]string{"result"}, // result=ok|error
		),
		TokensPurged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "janitor",
				Name:      "reset_tokens_purged_total",
				Help:      "Expired password reset tokens deleted.",
			},
		),
		SessionsSwept: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "janitor",
				Name:      "revoked_sessions_swept_total",
				Help:      "Expired in-process session revocations dropped.",
			},
		),
	}
	reg.MustRegister(
		p.RequestsTotal, p.RequestsDuration, p.InFlight,
		p.DbQueryDuration, p.DbErrorsTotal,
		p.LoginsTotal, p.ExportsTotal, p.ExportPages, p.ResetsRequested,
		p.JanitorRuns, p.TokensPurged, p.SessionsSwept,
	)

	return p
}

func (p *Prom) GinHandleMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()

		route := ctx.FullPath()

		if route == "" {
			route = "unmatched"
		}

		method := ctx.Request.Method
		p.InFlight.WithLabelValues(method, route).Inc()
		defer p.InFlight.WithLabelValues(method, route).Dec()
		ctx.Next()

		status := strconv.Itoa(ctx.Writer.Status())
		secs := time.Since(start).Seconds()

		p.RequestsTotal.WithLabelValues(method, route, status).Inc()
		p.RequestsDuration.WithLabelValues(method, route, status).Observe(secs)
	}
}

func (p *Prom) ObserveLogin(ok bool) {
	result := "ok"
	if !ok {
		result = "invalid"
	}
	p.LoginsTotal.WithLabelValues(result).Inc()
}

func (p *Prom) ObserveExport(status string, pages int) {
	if status == "" {
		status = "all"
	}
	p.ExportsTotal.WithLabelValues(status).Inc()
	p.ExportPages.Observe(float64(pages))
}

func (p *Prom) ObserveResetRequested() {
	p.ResetsRequested.Inc()
}

func (p *Prom) ObserveJanitor(purged int64, swept int, err error) {
	if err != nil {
		p.JanitorRuns.WithLabelValues("error").Inc()
		return
	}
	p.JanitorRuns.WithLabelValues("ok").Inc()
	p.TokensPurged.Add(float64(purged))
	p.SessionsSwept.Add(float64(swept))
}
