package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/Matheusaraujo007/chamados/internal/auth"
	"github.com/Matheusaraujo007/chamados/internal/clock"
	"github.com/Matheusaraujo007/chamados/internal/domain/resettoken"
	"github.com/Matheusaraujo007/chamados/internal/domain/user"
	"github.com/Matheusaraujo007/chamados/internal/notifications"
	"github.com/Matheusaraujo007/chamados/internal/repo"
	"github.com/Matheusaraujo007/chamados/internal/security"
	"github.com/Matheusaraujo007/chamados/internal/sessions"
)

const (
	maxUsernameLen = 50
	minPasswordLen = 8
)

type AuthConfig struct {
	ResetTokenTTL time.Duration
	PublicBaseURL string
}

type AuthService struct {
	store    repo.Store
	tokens   *auth.Manager
	revoker  sessions.Revoker
	notifier notifications.Notifier
	clock    clock.Clock
	cfg      AuthConfig
	log      *slog.Logger
	metrics  Metrics
}

func NewAuthService(
	store repo.Store,
	tokens *auth.Manager,
	revoker sessions.Revoker,
	notifier notifications.Notifier,
	clk clock.Clock,
	cfg AuthConfig,
	log *slog.Logger,
	metrics Metrics,
) *AuthService {
	if log == nil {
		log = slog.Default()
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	return &AuthService{
		store:    store,
		tokens:   tokens,
		revoker:  revoker,
		notifier: notifier,
		clock:    clk,
		cfg:      cfg,
		log:      log,
		metrics:  metricsOrNop(metrics),
	}
}

type LoginResult struct {
	Session auth.Session
	User    user.User
}

// Login verifies the credentials and issues a session token. Unknown users and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: username and password are required", ErrValidation)
	}

	u, err := s.store.Users().GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		security.BurnCompare(password)
		s.loginFailed(ctx, username)
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("login lookup: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		s.loginFailed(ctx, username)
		return LoginResult{}, ErrInvalidCredentials
	}

	sess, err := s.tokens.Issue(u)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session: %w", err)
	}

	s.metrics.ObserveLogin(true)
	s.log.InfoContext(ctx, "auth.login", "username", u.Username, "role", u.Role)

	return LoginResult{Session: sess, User: u}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, username string) {
	s.metrics.ObserveLogin(false)
	s.log.WarnContext(ctx, "auth.login_failed", "username", username)
}

// Logout revokes the session behind token when it still verifies. It never
// fails from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, token string) {
	if token == "" {
		return
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return
	}

	var until time.Time
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := s.revoker.Revoke(ctx, claims.ID, until); err != nil {
		s.log.ErrorContext(ctx, "auth.logout_revoke_failed", "username", claims.Username, "err", err)
		return
	}

	s.log.InfoContext(ctx, "auth.logout", "username", claims.Username)
}

// Authenticate resolves a session token into an Identity, rejecting revoked
// sessions.
func (s *AuthService) Authenticate(ctx context.Context, token string) (actorctx.Identity, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return actorctx.Identity{}, ErrUnauthenticated
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return actorctx.Identity{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return actorctx.Identity{}, ErrUnauthenticated
	}

	// role comes from the store so a demotion applies to live sessions
	u, err := s.store.Users().Get(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return actorctx.Identity{}, ErrUnauthenticated
		}
		return actorctx.Identity{}, fmt.Errorf("load session user: %w", err)
	}
	if u.Username != claims.Username {
		return actorctx.Identity{}, ErrUnauthenticated
	}

	id := actorctx.Identity{
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		SessionID: claims.ID,
	}
	if claims.ExpiresAt != nil {
		id.ExpiresAt = claims.ExpiresAt.Time
	}

	return id, nil
}

// Register creates a regular user. Only administrators may call it.
func (s *AuthService) Register(ctx context.Context, username, password string) (user.User, error) {
	caller, ok := actorctx.IdentityFrom(ctx)
	if !ok || !caller.IsAdmin() {
		return user.User{}, ErrForbidden
	}

	username = strings.TrimSpace(username)
	if username == "" || utf8.RuneCountInString(username) > maxUsernameLen {
		return user.User{}, fmt.Errorf("%w: username must have 1 to %d characters", ErrValidation, maxUsernameLen)
	}
	if utf8.RuneCountInString(password) < minPasswordLen {
		return user.User{}, fmt.Errorf("%w: password must have at least %d characters", ErrValidation, minPasswordLen)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	u := user.User{
		Username:     username,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    s.clock.Now(),
	}

	err = s.store.WithTx(ctx, func(tx repo.Store) error {
		_, err := tx.Users().GetByUsername(ctx, username)
		if err == nil {
			return ErrUsernameTaken
		}
		if !errors.Is(err, user.ErrNotFound) {
			return err
		}

		return tx.Users().Save(ctx, &u)
	})
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			return user.User{}, ErrUsernameTaken
		}
		return user.User{}, fmt.Errorf("register user: %w", err)
	}

	s.log.InfoContext(ctx, "auth.user_registered", "username", u.Username, "by", caller.Username)

	return u, nil
}

// RequestPasswordReset sends a reset link to a known user. Unknown users get
// the same nil result.
func (s *AuthService) RequestPasswordReset(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}

	u, err := s.store.Users().GetByUsername(ctx, username)
	if errors.Is(err, user.ErrNotFound) {
		s.log.InfoContext(ctx, "auth.reset_requested_unknown_user")
		return nil
	}
	if err != nil {
		return fmt.Errorf("reset lookup: %w", err)
	}

	raw, hash, err := security.NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	now := s.clock.Now()
	tok := resettoken.ResetToken{
		TokenHash: hash,
		Username:  u.Username,
		ExpiresAt: now.Add(s.cfg.ResetTokenTTL),
		CreatedAt: now,
	}

	if err := s.store.ResetTokens().Save(ctx, &tok); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	s.metrics.ObserveResetRequested()

	err = s.notifier.SendPasswordReset(ctx, notifications.PasswordResetInput{
		Username:  u.Username,
		ResetURL:  s.cfg.PublicBaseURL + "/reset_password/" + raw,
		ExpiresAt: tok.ExpiresAt,
	})
	if err != nil {
		// the token stays valid; the user can ask again
		s.log.WarnContext(ctx, "auth.reset_notify_failed", "username", u.Username, "err", err)
		return nil
	}

	s.log.InfoContext(ctx, "auth.reset_requested", "username", u.Username, "expires_at", tok.ExpiresAt)

	return nil
}

func (s *AuthService) ValidateResetToken(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrInvalidToken
	}

	tok, err := s.store.ResetTokens().GetByHash(ctx, security.HashToken(raw))
	if errors.Is(err, resettoken.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("reset token lookup: %w", err)
	}

	if tok.Expired(s.clock.Now()) {
		return ErrInvalidToken
	}

	return nil
}

// ResetPassword consumes the token and replaces the user's password.
func (s *AuthService) ResetPassword(ctx context.Context, raw, newPassword string) error {
	if raw == "" {
		return ErrInvalidToken
	}
	if utf8.RuneCountInString(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must have at least %d characters", ErrValidation, minPasswordLen)
	}

	hash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	var username string

	err = s.store.WithTx(ctx, func(tx repo.Store) error {
		tok, err := tx.ResetTokens().GetByHash(ctx, security.HashToken(raw))
		if errors.Is(err, resettoken.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		if tok.Expired(s.clock.Now()) {
			return ErrInvalidToken
		}

		u, err := tx.Users().GetByUsername(ctx, tok.Username)
		if errors.Is(err, user.ErrNotFound) {
			return ErrInvalidToken
		}
		if err != nil {
			return err
		}

		u.PasswordHash = hash
		if err := tx.Users().Save(ctx, &u); err != nil {
			return err
		}

		username = u.Username
		return tx.ResetTokens().Delete(ctx, tok.ID)
	})
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			return ErrInvalidToken
		}
		return fmt.Errorf("reset password: %w", err)
	}

	s.log.InfoContext(ctx, "auth.password_reset", "username", username)

	return nil
}
