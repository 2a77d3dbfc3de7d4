// Package actorctx carries the authenticated caller on a context.Context so
// services can authorize without depending on the HTTP layer.
package actorctx

import (
	"context"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/domain/user"
)

type ctxKey struct{}

type Identity struct {
	UserID    int64
	Username  string
	Role      user.Role
	SessionID string
	ExpiresAt time.Time
}

func (i Identity) IsAdmin() bool {
	return i.Role == user.RoleAdmin
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(ctxKey{}).(Identity)

	return v, ok && v.Username != ""
}
