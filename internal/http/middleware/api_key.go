package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireAPIKey guards machine endpoints such as /metrics.
// Args:
//   expected: Configured key. Requests are refused when empty.
// Returns:
//   gin.HandlerFunc: Middleware handler.
func RequireAPIKey(expected string) gin.HandlerFunc {
	expected = strings.TrimSpace(expected)
	return func(c *gin.Context) {
		if expected == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "api key not configured"})
			c.Abort()
			return
		}

		apiKey := strings.TrimSpace(c.GetHeader("X-API-Key"))
		if apiKey == "" {
			apiKey = strings.TrimSpace(c.Query("api_key"))
		}
		if apiKey == "" || subtle.ConstantTimeCompare([]byte(apiKey), []byte(expected)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		c.Next()
	}
}
