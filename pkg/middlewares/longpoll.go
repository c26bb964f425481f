package middlewares

import (
	"github.com/gin-gonic/gin"
)

// This middleware is used to add headers to long-poll responses so that no proxy or browser caches a completed poll.
func LongPollMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		c.Writer.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		c.Writer.Header().Set("Pragma", "no-cache")
		c.Writer.Header().Set("Expires", "0")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Next()
	}
}
