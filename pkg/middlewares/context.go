package middlewares

import (
	"Tabcast/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
)

// This middleware will be used to populate every incoming request's context with an Unique CorrelationID.
// An incoming X-Correlation-ID is kept, so a chain of requests across services shares one id.
func CorrelationMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		correlationID := gctx.GetHeader("X-Correlation-ID")
		if _, parseerr := xid.FromString(correlationID); parseerr != nil {
			if correlationID != "" {
				logger.WithCtx(gctx).Debug().Str("Received", correlationID).Msg("Replacing malformed X-Correlation-ID")
			}
			correlationID = xid.New().String()
		}
		// Setting the correlationID in request's context
		gctx.Set("correlation_id", correlationID)
		// Setting the correlationID to response header
		gctx.Writer.Header().Set("X-Correlation-ID", correlationID)
	}
}
