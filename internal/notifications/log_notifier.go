package notifications

import (
	"context"
	"log/slog"
	"time"
)

// LogNotifier writes the reset link to the operator log. It stands in for a
// mail provider; the link never reaches the requesting client.
type LogNotifier struct {
	log   *slog.Logger
	delay time.Duration
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

// WithDelay simulates a slow provider.
func (n *LogNotifier) WithDelay(d time.Duration) *LogNotifier {
	n.delay = d
	return n
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, in PasswordResetInput) error {
	if n.delay > 0 {
		select {
		case <-time.After(n.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n.log.InfoContext(ctx, "notification.password_reset",
		"username", in.Username,
		"reset_url", in.ResetURL,
		"expires_at", in.ExpiresAt,
	)
	return nil
}
