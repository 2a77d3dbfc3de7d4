package sessions

import (
	"context"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/cache"
)

// MemoryRevoker keeps revocations in process. Suitable for a single replica.
type MemoryRevoker struct {
	c   *cache.Cache
	now func() time.Time
}

func NewMemoryRevoker(now func() time.Time) *MemoryRevoker {
	if now == nil {
		now = time.Now
	}
	return &MemoryRevoker{c: cache.New().WithNow(now), now: now}
}

func (r *MemoryRevoker) Revoke(_ context.Context, sessionID string, until time.Time) error {
	if !r.now().Before(until) {
		return nil
	}
	r.c.SetUntil(sessionID, struct{}{}, until)
	return nil
}

func (r *MemoryRevoker) IsRevoked(_ context.Context, sessionID string) (bool, error) {
	_, ok := r.c.Get(sessionID)
	return ok, nil
}

func (r *MemoryRevoker) Ping(context.Context) error { return nil }

// Sweep is called by the janitor to bound memory.
func (r *MemoryRevoker) Sweep() int {
	return r.c.Sweep()
}
