// Package sessions tracks revoked session ids until their token would have
// expired anyway.
package sessions

import (
	"context"
	"time"
)

type Revoker interface {
	Revoke(ctx context.Context, sessionID string, until time.Time) error
	IsRevoked(ctx context.Context, sessionID string) (bool, error)
	Ping(ctx context.Context) error
}
