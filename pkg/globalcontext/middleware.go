// Context middleware is used in gin to populate request context with a request ID.
// Every log line written through log.Logger.WithCtx carries it as ReqID.

package globalcontext

import (
	"Tabcast/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carrying the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// UniqueIDMiddleware stores a request ID under "ReqID" and echoes it in the response.
// A well formed UUID sent by a proxy in X-Request-ID is reused, anything else is replaced.
func UniqueIDMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		if incoming, parseerr := uuid.Parse(gctx.GetHeader(RequestIDHeader)); parseerr == nil {
			setRequestID(gctx, incoming.String())
			return
		}
		rqId, uuiderr := uuid.NewRandom()
		if uuiderr != nil {
			logger.Error().Err(uuiderr).Msg("Error during generating UUID for ReqID.")
			return
		}
		setRequestID(gctx, rqId.String())
	}
}

func setRequestID(gctx *gin.Context, id string) {
	gctx.Set("ReqID", id)
	gctx.Writer.Header().Set(RequestIDHeader, id)
}
