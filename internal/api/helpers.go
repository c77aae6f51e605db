package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// NOTE: the context key for user ID is always "userId" (lowercase 'd'),
// matching the auth middleware.

// currentUserID extracts the authenticated user's ID from the request
// context.
func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("userId")
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// pathID parses a numeric :id-style path parameter
func pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// queryInt parses an integer query parameter with a default
func queryInt(c *gin.Context, name string, defaultValue int) int {
	value := c.Query(name)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
