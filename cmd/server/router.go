// List of all REST API endpoints being used by Tabcast can be found here.

package main

import (
	"Tabcast/internal/auth"
	"Tabcast/internal/config"
	"Tabcast/internal/longpoll"
	"Tabcast/internal/metrics"
	"Tabcast/internal/session"
	"Tabcast/internal/status"
	"Tabcast/pkg/log"
	"net/http"

	"github.com/gin-gonic/gin"
)

func Router(router *gin.Engine, cfg config.Config, table *session.Table, statusService status.Service, metricsService metrics.Service, logger log.Logger) {
	// This is the route to default path
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Welcome to Tabcast!")
	})

	secureCookie := !cfg.IsDev()
	longpoll.APIHandlers(router, longpoll.NewService(logger), table, auth.IdentifyMiddleware(logger, cfg.JWTSecret, false), secureCookie, logger)
	status.APIHandlers(router, statusService, longpoll.SessionMiddleware(table, false, secureCookie, logger), logger)
	metrics.APIHandlers(router, metricsService, logger)
}
