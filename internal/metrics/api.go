// Exposes the REST APIs related to metrics in Tabcast.

package metrics

import (
	"Tabcast/internal/errors"
	"Tabcast/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package metrics onto the gin server.
func APIHandlers(router *gin.Engine, service Service, logger log.Logger) {
	metricsGroup := router.Group("/api/metrics")
	{
		metricsGroup.GET("", getLive(service))
		metricsGroup.GET("/saved", getSaved(service, logger))
	}
}

// getLive returns a handler reporting the live session and tab counters.
func getLive(service Service) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		gctx.JSON(http.StatusOK, service.Snapshot(gctx))
	}
}

// getSaved returns a handler reporting the counters last saved to the DB.
func getSaved(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		metrics, err := service.GetMetrics(gctx)
		if err != nil {
			logger.WithCtx(gctx).Warn().Err(err).Msg("Couldn't fetch saved metrics")
			resp, ok := err.(errors.ErrorResponse)
			if !ok {
				resp = errors.InternalServerError("")
			}
			gctx.AbortWithStatusJSON(errors.Status(resp), resp)
			return
		}
		gctx.JSON(http.StatusOK, metrics)
	}
}
