// README: Session auth middleware: resolves the bearer token to a stored identity.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"transporter/internal/modules/auth"
)

const (
	ctxKeyIdentity = "caller_identity"
	ctxKeyUID      = "caller_uid"
	ctxKeyRole     = "caller_role"
)

// SessionResolver looks up the identity behind a session token.
type SessionResolver interface {
	Session(ctx context.Context, token string) (auth.Identity, error)
}

func Auth(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		id, err := sessions.Session(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": auth.UserMessage(auth.ErrSessionNotFound)})
			return
		}
		c.Set(ctxKeyIdentity, id)
		c.Set(ctxKeyUID, id.User.UID)
		c.Set(ctxKeyRole, string(id.User.Role))
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxKeyUID)
}

func CallerRole(c *gin.Context) string {
	return c.GetString(ctxKeyRole)
}

func CallerIdentity(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(ctxKeyIdentity)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok
}
