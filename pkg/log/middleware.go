// This middleware is used to integrate zerolog extension created in logger.go into gin server.

package log

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Primary use-case of this middleware is to force gin to use zerolog functionality instead of the default one.
// Every request ends with one structured line, its level following the response status.
// Long-polls are expected to be held open, their latency is logged but never treated as slow.
func LoggerGinExtension(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now() // Start timer
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		// Process request
		c.Next()

		latency := time.Since(start)
		if latency > time.Minute {
			latency = latency.Truncate(time.Second)
		}
		status := c.Writer.Status()

		l := logger.WithCtx(c)
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = l.Error()
		case status >= 400:
			event = l.Warn()
		case c.Request.Method == "OPTIONS":
			event = l.Debug()
		default:
			event = l.Info()
		}
		event = event.
			Str("ClientIP", c.ClientIP()).
			Str("Method", c.Request.Method).
			Str("Path", path).
			Int("Status", status).
			Dur("Latency", latency).
			Int("BodySize", c.Writer.Size())
		if correlationID := c.GetString("correlation_id"); correlationID != "" {
			event = event.Str("CorrelationID", correlationID)
		}
		if strings.HasSuffix(c.Request.URL.Path, "/poll") {
			event = event.Bool("LongPoll", true)
		}
		if msg := c.Errors.ByType(gin.ErrorTypePrivate).String(); msg != "" {
			event = event.Str("Errors", msg)
		}
		event.Msg("Request handled")
	}
}
