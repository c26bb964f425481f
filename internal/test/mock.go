// Mock methods required in Tabcast tests are all here.

package test

import (
	"Tabcast/pkg/log"
	"Tabcast/pkg/middlewares"
	"net/http"

	"github.com/gin-gonic/gin"
)

// MockRouter returns a fresh gin test server, so routes registered by one test never leak into another.
func MockRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middlewares.CORSMiddleware("*")) // CORS middleware which allows request from all origin
	return router
}

// Cookie to be used in tests to bypass MockAuthMiddleware
var MockAuthAllowCookie *http.Cookie = &http.Cookie{
	Name:     "mode",
	Value:    "test",
	HttpOnly: true,
}

// MockAuthMiddleware identifies the caller from the "user" cookie when MockAuthAllowCookie is present.
func MockAuthMiddleware(logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		token, err := gctx.Request.Cookie("mode")
		if err != nil || token.Value != "test" {
			gctx.Next()
			return
		}
		user, err := gctx.Request.Cookie("user")
		if err != nil {
			logger.WithCtx(gctx).Debug().Msg("MockAuthMiddleware found no user cookie")
			gctx.Next()
			return
		}
		// Set UserID in request's context
		// This pair will be used further down in the handler chain
		gctx.Set("UserID", user.Value)
		gctx.Next()
	}
}
