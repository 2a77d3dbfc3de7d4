package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/auth"
	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/db"
	apphttp "github.com/Matheusaraujo007/chamados/internal/http"
	"github.com/Matheusaraujo007/chamados/internal/notifications"
	"github.com/Matheusaraujo007/chamados/internal/repo"
	"github.com/Matheusaraujo007/chamados/internal/repo/memory"
	"github.com/Matheusaraujo007/chamados/internal/repo/postgres"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/Matheusaraujo007/chamados/internal/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	adminUser = "admin"
	adminPass = "admin-senha-1"
)

type mailbox struct {
	mu   sync.Mutex
	sent []notifications.PasswordResetInput
}

func (m *mailbox) SendPasswordReset(_ context.Context, in notifications.PasswordResetInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, in)
	return nil
}

func (m *mailbox) lastToken(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatalf("no reset link sent")
	}
	u := m.sent[len(m.sent)-1].ResetURL
	return u[strings.LastIndex(u, "/")+1:]
}

type testApp struct {
	server *httptest.Server
	mail   *mailbox
}

func newMemoryApp(t *testing.T) *testApp {
	t.Helper()
	return newApp(t, memory.NewStore())
}

// newPostgresApp runs against TEST_DB_DSN and skips when it is unset.
func newPostgresApp(t *testing.T) *testApp {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.Migrate(ctx, pool); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE reset_tokens, tickets, users RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return newApp(t, postgres.NewStore(pool, nil))
}

func newApp(t *testing.T, store repo.Store) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	loc := clock.MustLoadLocation(clock.DefaultTimezone)
	clk := clock.NewSystem(loc)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mail := &mailbox{}

	if _, err := db.EnsureAdminUser(context.Background(), store, adminUser, adminPass, clk.Now()); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	tokens := auth.NewManager("integration-secret", time.Hour)
	authSvc := services.NewAuthService(store, tokens, sessions.NewMemoryRevoker(nil), mail, clk, services.AuthConfig{
		ResetTokenTTL: time.Hour,
		PublicBaseURL: "http://chamados.test",
	}, log, nil)

	router := apphttp.NewRouter(apphttp.Dependencies{
		Log:     log,
		Env:     "test",
		Auth:    authSvc,
		Tickets: services.NewTicketService(store, clk, loc, log),
		Exports: services.NewExportService(store, loc, nil, log, nil),
		Ready:   store.Ping,
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testApp{server: srv, mail: mail}
}

// client keeps cookies like a browser and never follows redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := c.Get(a.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return readBody(t, resp)
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, []byte) {
	t.Helper()
	resp, err := c.PostForm(a.server.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return readBody(t, resp)
}

// login returns the access token so callers can replay it as a bearer.
func (a *testApp) login(t *testing.T, c *http.Client, username, password string) string {
	t.Helper()
	resp, body := a.postForm(t, c, "/login", url.Values{"username": {username}, "password": {password}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status=%d body=%s", username, resp.StatusCode, body)
	}
	var out struct {
		AccessToken string `json:"accessToken"`
	}
	decodeJSON(t, body, &out)
	return out.AccessToken
}

func (a *testApp) getBearer(t *testing.T, path, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, a.server.URL+path, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	resp, _ = readBody(t, resp)
	return resp
}

func readBody(t *testing.T, resp *http.Response) (*http.Response, []byte) {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, b
}

func decodeJSON(t *testing.T, b []byte, out any) {
	t.Helper()
	if err := json.Unmarshal(b, out); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, b)
	}
}
