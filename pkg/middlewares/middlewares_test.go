package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"Tabcast/pkg/log"

	"github.com/gin-gonic/gin"
	"github.com/rs/xid"
	"github.com/stretchr/testify/assert"
)

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(handlers...)
	router.GET("/", func(gctx *gin.Context) {
		gctx.String(http.StatusOK, gctx.GetString("correlation_id"))
	})
	return router
}

func TestCorrelationMiddlewareGeneratesID(t *testing.T) {
	router := newRouter(CorrelationMiddleware(log.Nop()))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	id := res.Header().Get("X-Correlation-ID")
	_, err := xid.FromString(id)
	assert.NoError(t, err)
	assert.Equal(t, id, res.Body.String())
}

func TestCorrelationMiddlewareKeepsIncomingID(t *testing.T) {
	router := newRouter(CorrelationMiddleware(log.Nop()))
	incoming := xid.New().String()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", incoming)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	assert.Equal(t, incoming, res.Header().Get("X-Correlation-ID"))

	req.Header.Set("X-Correlation-ID", "not-an-xid")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.NotEqual(t, "not-an-xid", res.Header().Get("X-Correlation-ID"))
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(CORSMiddleware("http://localhost:3000, https://app.example.com"))

	for _, origin := range []string{"http://localhost:3000", "https://app.example.com"} {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", origin)
		res := httptest.NewRecorder()
		router.ServeHTTP(res, req)

		assert.Equal(t, http.StatusNoContent, res.Code)
		assert.Equal(t, origin, res.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", res.Header().Get("Access-Control-Allow-Credentials"))
	}

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	router := newRouter(CORSMiddleware("*"))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "*", res.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	res = httptest.NewRecorder()
	router.ServeHTTP(res, req)
	assert.Equal(t, "http://localhost:5173", res.Header().Get("Access-Control-Allow-Origin"))
}

func TestLongPollMiddleware(t *testing.T) {
	router := newRouter(LongPollMiddleware())
	res := httptest.NewRecorder()
	router.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Contains(t, res.Header().Get("Cache-Control"), "no-store")
	assert.Equal(t, "no", res.Header().Get("X-Accel-Buffering"))
}
