package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

type contextKey string

const userContextKey contextKey = "mycloudUser"

// Gate validates the bearer token and injects the resolved username into the
// request context. The token is read from the Authorization header, or from
// the token query parameter for requests that cannot set headers (inline
// previews, direct browser links).
func Gate(service *Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = extractBearerToken(c.Query("token"))
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
			return
		}

		username, err := service.ResolveToken(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(string(userContextKey), username)
		c.Next()
	}
}

// CurrentUser extracts the authenticated username from the context.
func CurrentUser(c *gin.Context) (string, bool) {
	value, exists := c.Get(string(userContextKey))
	if !exists {
		return "", false
	}
	username, ok := value.(string)
	return username, ok && username != ""
}

// extractBearerToken tolerates both a bare token and the "Bearer <token>"
// form, in headers and query parameters alike.
func extractBearerToken(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if len(raw) >= 7 && strings.EqualFold(raw[:7], "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
