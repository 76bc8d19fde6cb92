package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// clientIDKey is the key used to store the caller's client ID in the Gin
// context. Using a custom type prevents collisions.
const clientIDKey = contextKey("clientID")

// ClientIDHeader carries the anonymous per-device identity the dashboard
// uses to key its favorite set. There are no user accounts.
const ClientIDHeader = "X-Client-ID"

// EnsureClientID reads the client ID header, generating and echoing a fresh
// one when the header is missing or not a valid UUID. The first response a
// new device receives therefore tells it which ID to persist.
func EnsureClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetHeader(ClientIDHeader)
		if _, err := uuid.Parse(clientID); err != nil {
			clientID = uuid.NewString()
		}
		c.Header(ClientIDHeader, clientID)
		c.Set(string(clientIDKey), clientID)
		c.Next()
	}
}

// GetClientIDFromContext retrieves the client ID from the Gin context.
// It returns the ID and a boolean indicating whether it was found.
func GetClientIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(clientIDKey))
	if !exists {
		return "", false
	}
	clientID, ok := val.(string)
	if !ok {
		return "", false
	}
	return clientID, true
}
