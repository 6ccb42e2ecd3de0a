// README: Bearer-token auth middleware; attaches caller id and role to the request.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cityride/internal/auth"
	"cityride/internal/types"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
)

func Auth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := ""
		switch {
		case strings.HasPrefix(header, "Bearer "):
			token = strings.TrimPrefix(header, "Bearer ")
		case c.Query("token") != "":
			// WebSocket clients cannot set headers from the browser.
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := tokens.Validate(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRole guards a route group to one role. Runs after Auth.
func RequireRole(role types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CallerRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func CallerID(c *gin.Context) types.ID {
	return types.ID(c.GetString(ctxUserID))
}

func CallerRole(c *gin.Context) types.Role {
	return types.Role(c.GetString(ctxRole))
}
