package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/deviflow/deviflow/internal/db"
)

// APIKeyMiddleware authenticates machine clients (the ComfyUI ingestion
// path) with an "X-Api-Key" header instead of a JWT, and sets
// "currentUser" the same way JWTMiddleware does.
func APIKeyMiddleware(store db.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Api-Key")
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}

		user, err := store.GetUserByAPIKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Set("currentUser", user)
		c.Next()
	}
}
