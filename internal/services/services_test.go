package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/auth"
	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/notifications"
	"github.com/Matheusaraujo007/chamados/internal/repo/memory"
	"github.com/Matheusaraujo007/chamados/internal/security"
	"github.com/Matheusaraujo007/chamados/internal/sessions"
	"github.com/stretchr/testify/require"
)

var saoPaulo = clock.MustLoadLocation(clock.DefaultTimezone)

type captureNotifier struct {
	mu   sync.Mutex
	sent []notifications.PasswordResetInput
	err  error
}

func (n *captureNotifier) SendPasswordReset(_ context.Context, in notifications.PasswordResetInput) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, in)
	return n.err
}

func (n *captureNotifier) last(t *testing.T) notifications.PasswordResetInput {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no notification sent")
	return n.sent[len(n.sent)-1]
}

type fixture struct {
	store    *memory.Store
	clock    *clock.Fake
	notifier *captureNotifier
	tokens   *auth.Manager
	auth     *AuthService
	tickets  *TicketService
	exports  *ExportService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:    memory.NewStore(),
		clock:    clock.NewFake(time.Date(2025, 1, 1, 9, 0, 0, 0, saoPaulo)),
		notifier: &captureNotifier{},
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	f.tokens = auth.NewManager("test-secret", time.Hour).WithNow(f.clock.Now)
	revoker := sessions.NewMemoryRevoker(f.clock.Now)

	f.auth = NewAuthService(f.store, f.tokens, revoker, f.notifier, f.clock, AuthConfig{
		ResetTokenTTL: time.Hour,
		PublicBaseURL: "https://chamados.example/",
	}, log, nil)
	f.tickets = NewTicketService(f.store, f.clock, saoPaulo, log)
	f.exports = NewExportService(f.store, saoPaulo, nil, log, nil)

	return f
}

func (f *fixture) addUser(t *testing.T, username, password string, role user.Role) user.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	require.NoError(t, err)

	u := user.User{Username: username, PasswordHash: hash, Role: role, CreatedAt: f.clock.Now()}
	require.NoError(t, f.store.Users().Save(context.Background(), &u))
	return u
}

func asUser(u user.User) context.Context {
	return actorctx.WithIdentity(context.Background(), actorctx.Identity{
		UserID:   u.ID,
		Username: u.Username,
		Role:     u.Role,
	})
}

func tokenFromURL(t *testing.T, url string) string {
	t.Helper()
	const marker = "/reset_password/"
	i := strings.Index(url, marker)
	require.GreaterOrEqual(t, i, 0, "unexpected reset url %q", url)
	return url[i+len(marker):]
}
