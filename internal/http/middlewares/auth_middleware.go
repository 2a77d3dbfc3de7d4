package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/Matheusaraujo007/chamados/internal/actorctx"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (actorctx.Identity, error)
}

type AuthMiddleware struct {
	auth      Authenticator
	isNoToken func(error) bool
}

// NewAuthMiddleware takes a predicate telling "bad token" errors apart from
// backend failures; nil treats every error as a bad token.
func NewAuthMiddleware(auth Authenticator, isNoToken func(error) bool) *AuthMiddleware {
	if isNoToken == nil {
		isNoToken = func(error) bool { return true }
	}
	return &AuthMiddleware{auth: auth, isNoToken: isNoToken}
}

// TokenFromRequest prefers the Authorization header over the session cookie.
func TokenFromRequest(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}

	raw, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return raw
}

// LoadIdentity attaches the caller's identity to the request context when a
// valid session is presented. It never rejects the request.
func (m *AuthMiddleware) LoadIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := TokenFromRequest(c)
		if raw == "" {
			c.Next()
			return
		}

		id, err := m.auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if !m.isNoToken(err) {
				_ = c.Error(err)
			}
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := IdentityFromContext(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": gin.H{
					"code":      "unauthorized",
					"message":   "Faça login para continuar.",
					"requestId": c.GetString(CtxRequestID),
				},
			})
			return
		}

		c.Next()
	}
}

func IdentityFromContext(c *gin.Context) (actorctx.Identity, bool) {
	return actorctx.IdentityFrom(c.Request.Context())
}
