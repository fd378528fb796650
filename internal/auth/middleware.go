package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/workbook/internal/logger"
)

type Middleware struct {
	issuer *Issuer
	log    *logger.Logger
}

func NewMiddleware(issuer *Issuer, log *logger.Logger) *Middleware {
	return &Middleware{issuer: issuer, log: logger.OrNop(log).With("middleware", "AuthMiddleware")}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.issuer.Verify(bearer(c))
		if err != nil {
			m.log.Debug("rejected token", "path", c.FullPath(), "error", err)
			abort(c, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
			return
		}
		attach(c, id)
		c.Next()
	}
}

// OptionalAuth attaches the caller when a valid token is present and lets
// anonymous requests through.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearer(c); token != "" {
			if id, err := m.issuer.Verify(token); err == nil {
				attach(c, id)
			}
		}
		c.Next()
	}
}

// RequireInstructor must run after RequireAuth.
func (m *Middleware) RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := FromContext(c.Request.Context())
		if !ok {
			abort(c, http.StatusUnauthorized, "missing or invalid token", "unauthorized")
			return
		}
		if !id.IsInstructor() {
			abort(c, http.StatusForbidden, "instructor role required", "forbidden")
			return
		}
		c.Next()
	}
}

// Current returns the caller attached by the middleware.
func Current(c *gin.Context) (Identity, bool) {
	return FromContext(c.Request.Context())
}

func attach(c *gin.Context, id Identity) {
	c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))
}

func bearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func abort(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{"message": message, "code": code},
	})
}
