package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const clientIDHeader = "X-Client-Id"

// ClientIDKey is the gin context key holding the caller's client id.
const ClientIDKey = "client_id"

// ClientID requires the X-Client-Id header on session routes. Each browser
// profile sends a stable id so its session stores can be tied together.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(clientIDHeader)
		if clientID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "X-Client-Id header is required",
			})
			return
		}
		c.Set(ClientIDKey, clientID)
		c.Next()
	}
}

// ClientIDFromContext returns the client id stored in the gin context.
func ClientIDFromContext(c *gin.Context) string {
	return c.GetString(ClientIDKey)
}
