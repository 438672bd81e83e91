package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"modelviewer/internal/models"
)

// RequireCapability lets the request through when the current user holds
// every listed capability.
func RequireCapability(capabilities ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		for _, capability := range capabilities {
			if !user.Can(capability) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Next()
	}
}
