// Exposes the REST API reporting tab status in Tabcast.

package status

import (
	"Tabcast/internal/errors"
	"Tabcast/internal/session"
	"Tabcast/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package status onto the gin server.
// withSession must populate "Session" in the request context.
func APIHandlers(router *gin.Engine, service Service, withSession gin.HandlerFunc, logger log.Logger) {
	statusGroup := router.Group("/api/tabs")
	{
		statusGroup.GET("/status", withSession, getStatus(service, logger))
	}
}

// getStatus returns a handler listing the status of every tab in the caller's session.
func getStatus(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := gctx.Value("Session").(*session.Session)
		if !ok {
			// Type assertion error
			logger.WithCtx(gctx).Error().Msg("Type assertion error in get_status")
			gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
			return
		}
		statuses, err := service.SessionStatus(gctx, sess)
		if err != nil {
			resp, ok := err.(errors.ErrorResponse)
			if !ok {
				resp = errors.InternalServerError("")
			}
			gctx.AbortWithStatusJSON(errors.Status(resp), resp)
			return
		}
		gctx.JSON(http.StatusOK, gin.H{"tabs": statuses})
	}
}
