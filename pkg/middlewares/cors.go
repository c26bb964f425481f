package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// This middleware handles CORS policy for Tabcast server.
// origins is "*" or a comma separated list, the matching request origin is echoed back
// so session cookies keep working with credentials.
func CORSMiddleware(origins string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, origin := range strings.Split(origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowed[origin] = true
		}
	}
	return func(gctx *gin.Context) {
		header := gctx.Writer.Header()
		if origin := gctx.GetHeader("Origin"); origin != "" && (allowed[origin] || allowed["*"]) {
			header.Set("Access-Control-Allow-Origin", origin)
			header.Set("Access-Control-Allow-Credentials", "true")
		} else if allowed["*"] {
			header.Set("Access-Control-Allow-Origin", "*")
		}
		header.Set("Vary", "Origin")
		header.Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID, X-Correlation-ID")
		header.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Correlation-ID")
		header.Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if gctx.Request.Method == http.MethodOptions {
			gctx.AbortWithStatus(http.StatusNoContent)
			return
		}

		gctx.Next()
	}
}
