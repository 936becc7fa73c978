package middleware

import "github.com/gin-gonic/gin"

// requesterIDKey is the key used to store the authenticated requester's ID.
// Using a custom type prevents collisions.
const requesterIDKey = contextKey("requesterID")

// GetRequesterIDFromContext retrieves the authenticated requester ID from the
// Gin context. It returns the ID and a boolean indicating if it was found.
func GetRequesterIDFromContext(c *gin.Context) (string, bool) {
	val, exists := c.Get(string(requesterIDKey))
	if !exists {
		// check in the request context as well
		if ctxVal := c.Request.Context().Value(requesterIDKey); ctxVal != nil {
			if id, ok := ctxVal.(string); ok {
				return id, true
			}
		}
		return "", false
	}

	requesterID, ok := val.(string)
	if !ok {
		return "", false
	}
	return requesterID, true
}
