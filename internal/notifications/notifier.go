package notifications

import (
	"context"
	"time"
)

type PasswordResetInput struct {
	Username  string
	ResetURL  string
	ExpiresAt time.Time
}

// Notifier delivers messages to users outside of the HTTP response.
type Notifier interface {
	SendPasswordReset(ctx context.Context, input PasswordResetInput) error
}
