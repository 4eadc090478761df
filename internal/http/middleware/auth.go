package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"site-config-dashboard/internal/services"
)

const AuthContextKey = "auth_claims"

// AuthRequired validates the bearer token and stores claims in context.
// Args:
//   auth: Auth service, nil when JWT is not configured.
// Returns:
//   gin.HandlerFunc: Middleware handler.
func AuthRequired(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth not configured"})
			c.Abort()
			return
		}

		token := extractToken(c.GetHeader("Authorization"))
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		claims, err := auth.ParseToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(AuthContextKey, claims)
		c.Next()
	}
}

// RequireAdmin ensures the user role is admin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := GetAuthClaims(c)
		if !ok || !strings.EqualFold(claims.Role, "admin") {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetAuthClaims returns auth claims from context.
// Args:
//   c: Gin context.
// Returns:
//   *services.AuthClaims: Claims data.
//   bool: True when exists.
func GetAuthClaims(c *gin.Context) (*services.AuthClaims, bool) {
	raw, ok := c.Get(AuthContextKey)
	if !ok {
		return nil, false
	}
	claims, ok := raw.(*services.AuthClaims)
	return claims, ok
}

func extractToken(authHeader string) string {
	trimmed := strings.TrimSpace(authHeader)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "bearer ") {
		return strings.TrimSpace(trimmed[7:])
	}
	return trimmed
}
