package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKeyUsername holds the authenticated username in the gin context.
const ContextKeyUsername = "auth_username"

// TokenValidator resolves a bearer token to its owner.
type TokenValidator interface {
	UsernameIfValid(token string) string
}

// Middleware handles bearer authentication for HTTP requests.
type Middleware struct {
	sessions TokenValidator
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(sessions TokenValidator) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireJSON rejects unauthenticated requests with a 200 JSON envelope, as
// the sync endpoints report every application error in-band.
func (m *Middleware) RequireJSON() gin.HandlerFunc {
	return m.require(http.StatusOK)
}

// RequireStrict rejects unauthenticated requests with 401.
func (m *Middleware) RequireStrict() gin.HandlerFunc {
	return m.require(http.StatusUnauthorized)
}

func (m *Middleware) require(status int) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := m.sessions.UsernameIfValid(BearerToken(c.GetHeader("Authorization")))
		if username == "" {
			c.AbortWithStatusJSON(status, gin.H{"ok": false, "error": "unauthorised"})
			return
		}
		c.Set(ContextKeyUsername, username)
		c.Next()
	}
}

// BearerToken extracts the token from an Authorization header value. The
// scheme is matched case-insensitively.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// GetUsername retrieves the authenticated user's username from the context.
func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}
