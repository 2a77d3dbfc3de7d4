package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/auth"
	"github.com/Matheusaraujo007/chamados/internal/domain/ticket"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/http/handlers"
	"github.com/Matheusaraujo007/chamados/internal/http/middlewares"
	"github.com/Matheusaraujo007/chamados/internal/services"
	"github.com/gin-gonic/gin"
)

// Make sure Gin does not spam the console during the test
func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuthService struct {
	loginFn    func(ctx context.Context, username, password string) (services.LoginResult, error)
	logoutFn   func(ctx context.Context, token string)
	registerFn func(ctx context.Context, username, password string) (user.User, error)
	recoverFn  func(ctx context.Context, username string) error
	validateFn func(ctx context.Context, token string) error
	resetFn    func(ctx context.Context, token, newPassword string) error
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (services.LoginResult, error) {
	if f.loginFn != nil {
		return f.loginFn(ctx, username, password)
	}
	return services.LoginResult{}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, token string) {
	if f.logoutFn != nil {
		f.logoutFn(ctx, token)
	}
}

func (f *fakeAuthService) Register(ctx context.Context, username, password string) (user.User, error) {
	if f.registerFn != nil {
		return f.registerFn(ctx, username, password)
	}
	return user.User{}, nil
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, username string) error {
	if f.recoverFn != nil {
		return f.recoverFn(ctx, username)
	}
	return nil
}

func (f *fakeAuthService) ValidateResetToken(ctx context.Context, token string) error {
	if f.validateFn != nil {
		return f.validateFn(ctx, token)
	}
	return nil
}

func (f *fakeAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if f.resetFn != nil {
		return f.resetFn(ctx, token, newPassword)
	}
	return nil
}

type fakeTicketService struct {
	createFn  func(ctx context.Context, req ticket.CreateTicketRequest) (ticket.Ticket, error)
	listFn    func(ctx context.Context, in services.ListInput) (services.ListResult, error)
	resolveFn func(ctx context.Context, id int64) (bool, error)
	deleteFn  func(ctx context.Context, id int64) (bool, error)
}

func (f *fakeTicketService) Create(ctx context.Context, req ticket.CreateTicketRequest) (ticket.Ticket, error) {
	if f.createFn != nil {
		return f.createFn(ctx, req)
	}
	return ticket.Ticket{}, nil
}

func (f *fakeTicketService) List(ctx context.Context, in services.ListInput) (services.ListResult, error) {
	if f.listFn != nil {
		return f.listFn(ctx, in)
	}
	return services.ListResult{}, nil
}

func (f *fakeTicketService) Resolve(ctx context.Context, id int64) (bool, error) {
	if f.resolveFn != nil {
		return f.resolveFn(ctx, id)
	}
	return false, nil
}

func (f *fakeTicketService) Delete(ctx context.Context, id int64) (bool, error) {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, id)
	}
	return false, nil
}

type fakeExportService struct {
	allFn      func(ctx context.Context) (services.ExportResult, error)
	byStatusFn func(ctx context.Context, status string) (services.ExportResult, error)
}

func (f *fakeExportService) ExportAll(ctx context.Context) (services.ExportResult, error) {
	if f.allFn != nil {
		return f.allFn(ctx)
	}
	return services.ExportResult{}, nil
}

func (f *fakeExportService) ExportByStatus(ctx context.Context, status string) (services.ExportResult, error) {
	if f.byStatusFn != nil {
		return f.byStatusFn(ctx, status)
	}
	return services.ExportResult{}, nil
}

// small helper function which returns the gin engine to mount one handler per test
func setupRouter(method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.Handle(method, path, h)
	return r
}

// withIdentity mounts h behind a middleware that injects a fixed caller.
func withIdentity(id actorctx.Identity, h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))
		h(c)
	}
}

type envelope struct {
	Error   *handlers.APIError `json:"error"`
	Notices []handlers.Notice  `json:"notices"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid json: %v body=%s", err, w.Body.String())
	}
	return env
}

func jsonReq(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestLoginHandler(t *testing.T) {
	expires := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		body       string
		loginErr   error
		wantStatus int
		wantCode   string
		wantCookie bool
	}{
		{name: "success", body: `{"username":"ana","password":"senha-forte"}`, wantStatus: http.StatusOK, wantCookie: true},
		{name: "bad credentials", body: `{"username":"ana","password":"x"}`, loginErr: services.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: "invalid_credentials"},
		{name: "missing fields", body: `{"username":"ana"}`, wantStatus: http.StatusBadRequest, wantCode: "invalid_request"},
		{name: "store down", body: `{"username":"ana","password":"x"}`, loginErr: errors.New("db gone"), wantStatus: http.StatusInternalServerError, wantCode: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{
				loginFn: func(ctx context.Context, username, password string) (services.LoginResult, error) {
					if tt.loginErr != nil {
						return services.LoginResult{}, tt.loginErr
					}
					return services.LoginResult{
						Session: auth.Session{Token: "tok", ID: "jti", ExpiresAt: expires},
						User:    user.User{ID: 1, Username: username, Role: user.RoleUser},
					}, nil
				},
			}
			h := handlers.NewAuthHandler(svc, nil, false)
			r := setupRouter(http.MethodPost, "/login", h.Login)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonReq(http.MethodPost, "/login", tt.body))

			if w.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}

			env := decode(t, w)
			if tt.wantCode != "" {
				if env.Error == nil || env.Error.Code != tt.wantCode {
					t.Fatalf("expected error code %q, got %+v", tt.wantCode, env.Error)
				}
				if env.Error.RequestID == "" {
					t.Fatalf("expected request id in error envelope")
				}
			}

			cookie := w.Header().Get("Set-Cookie")
			if tt.wantCookie {
				if !strings.Contains(cookie, "session=tok") || !strings.Contains(cookie, "HttpOnly") || !strings.Contains(cookie, "SameSite=Lax") {
					t.Fatalf("unexpected cookie %q", cookie)
				}
			} else if cookie != "" {
				t.Fatalf("cookie should not be set, got %q", cookie)
			}
		})
	}
}

func TestLogoutHandler_ClearsCookie(t *testing.T) {
	var gotToken string
	svc := &fakeAuthService{logoutFn: func(_ context.Context, token string) { gotToken = token }}
	h := handlers.NewAuthHandler(svc, nil, true)
	r := setupRouter(http.MethodGet, "/logout", h.Logout)

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(&http.Cookie{Name: middlewares.SessionCookieName, Value: "tok"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	if gotToken != "tok" {
		t.Fatalf("logout got token %q", gotToken)
	}
	cookie := w.Header().Get("Set-Cookie")
	if !strings.Contains(cookie, "Max-Age=0") || !strings.Contains(cookie, "Secure") {
		t.Fatalf("cookie not cleared: %q", cookie)
	}
	if env := decode(t, w); len(env.Notices) != 1 || env.Notices[0].Message != "Você saiu do sistema." {
		t.Fatalf("unexpected notices: %+v", env.Notices)
	}
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"created", nil, http.StatusCreated, ""},
		{"duplicate", services.ErrUsernameTaken, http.StatusConflict, "username_taken"},
		{"not admin", services.ErrForbidden, http.StatusForbidden, "forbidden"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{
				registerFn: func(_ context.Context, username, _ string) (user.User, error) {
					return user.User{ID: 2, Username: username, Role: user.RoleUser}, tt.err
				},
			}
			h := handlers.NewAuthHandler(svc, nil, false)
			r := setupRouter(http.MethodPost, "/register", h.Register)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, jsonReq(http.MethodPost, "/register", `{"username":"novo","password":"senha-forte"}`))

			if w.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantCode != "" {
				if env := decode(t, w); env.Error == nil || env.Error.Code != tt.wantCode {
					t.Fatalf("unexpected error %+v", env.Error)
				}
			}
			if strings.Contains(w.Body.String(), "passwordHash") {
				t.Fatalf("password hash leaked: %s", w.Body.String())
			}
		})
	}
}

func TestRegisterHandler_ShortPassword(t *testing.T) {
	called := false
	svc := &fakeAuthService{registerFn: func(context.Context, string, string) (user.User, error) {
		called = true
		return user.User{}, nil
	}}
	h := handlers.NewAuthHandler(svc, nil, false)
	r := setupRouter(http.MethodPost, "/register", h.Register)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/register", `{"username":"novo","password":"1234567"}`))

	if w.Code != http.StatusBadRequest || called {
		t.Fatalf("status=%d called=%v", w.Code, called)
	}
}

func TestRecoverPasswordHandler_GenericResponse(t *testing.T) {
	svc := &fakeAuthService{}
	h := handlers.NewAuthHandler(svc, nil, false)
	r := setupRouter(http.MethodPost, "/recover_password", h.RecoverPassword)

	form := url.Values{"username": {"qualquer"}}
	req := httptest.NewRequest(http.MethodPost, "/recover_password", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "reset_password/") {
		t.Fatalf("reset link must not be returned: %s", w.Body.String())
	}
}

func TestResetPasswordHandlers(t *testing.T) {
	svc := &fakeAuthService{
		validateFn: func(_ context.Context, token string) error {
			if token != "good" {
				return services.ErrInvalidToken
			}
			return nil
		},
		resetFn: func(_ context.Context, token, _ string) error {
			if token != "good" {
				return services.ErrInvalidToken
			}
			return nil
		},
	}
	h := handlers.NewAuthHandler(svc, nil, false)
	r := gin.New()
	r.GET("/reset_password/:token", h.ResetForm)
	r.POST("/reset_password/:token", h.ResetPassword)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reset_password/good", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"/reset_password/good"`) {
		t.Fatalf("form: status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/reset_password/bad", nil))
	if env := decode(t, w); w.Code != http.StatusBadRequest || env.Error.Code != "invalid_token" {
		t.Fatalf("bad token: status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/reset_password/good", `{"password":"senha-nova-1"}`))
	if w.Code != http.StatusOK {
		t.Fatalf("reset: status=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, jsonReq(http.MethodPost, "/reset_password/bad", `{"password":"senha-nova-1"}`))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("reset bad token: status=%d", w.Code)
	}
}

func TestHomeRedirects(t *testing.T) {
	h := handlers.NewAuthHandler(&fakeAuthService{}, nil, false)

	r := setupRouter(http.MethodGet, "/", h.Home)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/login" {
		t.Fatalf("anonymous: %d %q", w.Code, w.Header().Get("Location"))
	}

	r = setupRouter(http.MethodGet, "/", withIdentity(actorctx.Identity{Username: "ana"}, h.Home))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("Location") != "/dashboard" {
		t.Fatalf("signed in: %q", w.Header().Get("Location"))
	}
}
