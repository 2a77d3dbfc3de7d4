// Package services holds the application operations behind the HTTP layer.
// Callers are identified through actorctx; errors are classified with the
// sentinels below and the domain packages' own errors.
package services

import (
	"errors"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrUsernameTaken      = user.ErrUsernameTaken
)

// Metrics receives domain counters. *observability.Prom satisfies it.
type Metrics interface {
	ObserveLogin(ok bool)
	ObserveResetRequested()
	ObserveExport(status string, pages int)
}

type nopMetrics struct{}

func (nopMetrics) ObserveLogin(bool)         {}
func (nopMetrics) ObserveResetRequested()    {}
func (nopMetrics) ObserveExport(string, int) {}

func metricsOrNop(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
