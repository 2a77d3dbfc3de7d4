package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (actorctx.Identity, error)
}

func (f *fakeAuthenticator) Authenticate(ctx context.Context, token string) (actorctx.Identity, error) {
	if f.authenticateFn != nil {
		return f.authenticateFn(ctx, token)
	}
	return actorctx.Identity{}, errors.New("no session")
}

func tokenAuth(tokens map[string]actorctx.Identity) *fakeAuthenticator {
	return &fakeAuthenticator{
		authenticateFn: func(_ context.Context, token string) (actorctx.Identity, error) {
			id, ok := tokens[token]
			if !ok {
				return actorctx.Identity{}, errors.New("no session")
			}
			return id, nil
		},
	}
}

func whoami(c *gin.Context) {
	id, _ := IdentityFromContext(c)
	c.String(http.StatusOK, id.Username)
}

func TestLoadIdentity_CookieAndBearer(t *testing.T) {
	m := NewAuthMiddleware(tokenAuth(map[string]actorctx.Identity{
		"cookie-tok": {Username: "ana", Role: user.RoleUser},
		"bearer-tok": {Username: "bia", Role: user.RoleAdmin},
	}), nil)

	r := gin.New()
	r.Use(m.LoadIdentity())
	r.GET("/me", whoami)

	tests := []struct {
		name   string
		setup  func(*http.Request)
		expect string
	}{
		{"no token", func(*http.Request) {}, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-tok"}) }, "ana"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bearer-tok") }, "bia"},
		{"bearer wins", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "cookie-tok"})
			r.Header.Set("Authorization", "Bearer bearer-tok")
		}, "bia"},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tt.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status=%d", w.Code)
			}
			if got := w.Body.String(); got != tt.expect {
				t.Fatalf("identity=%q want %q", got, tt.expect)
			}
		})
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	m := NewAuthMiddleware(tokenAuth(map[string]actorctx.Identity{
		"user":  {Username: "ana", Role: user.RoleUser},
		"admin": {Username: "bia", Role: user.RoleAdmin},
	}), nil)

	r := gin.New()
	r.Use(m.LoadIdentity())
	r.GET("/private", m.RequireAuth(), whoami)
	r.GET("/admin", m.RequireRole(user.RoleAdmin), whoami)

	tests := []struct {
		path, token string
		want        int
	}{
		{"/private", "", http.StatusUnauthorized},
		{"/private", "user", http.StatusOK},
		{"/admin", "", http.StatusUnauthorized},
		{"/admin", "user", http.StatusForbidden},
		{"/admin", "admin", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if tt.token != "" {
			req.Header.Set("Authorization", "Bearer "+tt.token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.want {
			t.Fatalf("%s with %q: status=%d want %d body=%s", tt.path, tt.token, w.Code, tt.want, w.Body.String())
		}
	}
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	hit := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	for i := 0; i < 2; i++ {
		if w := hit(); w.Code != http.StatusOK {
			t.Fatalf("request %d: status=%d", i, w.Code)
		}
	}

	w := hit()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") != "60" {
		t.Fatalf("Retry-After=%q", w.Header().Get("Retry-After"))
	}

	now = now.Add(time.Minute + time.Second)
	if w := hit(); w.Code != http.StatusOK {
		t.Fatalf("expected window reset, got %d", w.Code)
	}
}

func TestRequestID_EchoesOrGenerates(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(CtxRequestID)) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Body.String() != "abc" || w.Header().Get("X-Request-Id") != "abc" {
		t.Fatalf("request id not echoed: body=%q", w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(w.Body.String()) != 36 {
		t.Fatalf("expected a generated uuid, got %q", w.Body.String())
	}
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.POST("/", MaxBodyBytes(8), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way more than eight bytes")))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example"}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status=%d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://app.example" {
		t.Fatalf("missing allow-origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatalf("unexpected allow-origin for foreign origin")
	}
}
