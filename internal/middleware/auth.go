package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/huangang/problempad/pkg/response"
)

// AdminTokenRequired guards admin routes with the shared admin token, taken
// from the token query parameter or a Bearer authorization header. An empty
// configured token locks the routes entirely.
func AdminTokenRequired(token string) gin.HandlerFunc {
	want := []byte(token)
	return func(c *gin.Context) {
		got := RequestToken(c)
		if len(want) == 0 || got == "" || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			response.Forbidden(c, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequestToken returns the admin token the request carries, if any.
func RequestToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
