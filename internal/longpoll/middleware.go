// Session middleware used to populate request context with the caller's Tabcast session.

package longpoll

import (
	"Tabcast/internal/errors"
	"Tabcast/internal/session"
	"Tabcast/pkg/log"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
)

// Name of the cookie carrying the session id.
const SessionCookie = "tabcast_session"

// Lifetime of the session cookie in seconds, refreshed on every tab creation.
const sessionCookieMaxAge = 7 * 24 * 60 * 60

// SessionMiddleware resolves the session of the request from its cookie.
// With create set, an unknown or missing session is created and the cookie is (re)issued,
// otherwise the request is rejected with 404.
func SessionMiddleware(table *session.Table, create bool, secure bool, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		id, cookieerr := gctx.Cookie(SessionCookie)
		if cookieerr != nil || !govalidator.IsUUIDv4(id) {
			id = ""
		}

		if !create {
			if id == "" {
				gctx.AbortWithStatusJSON(http.StatusNotFound, errors.ErrSessionNotFound)
				return
			}
			sess, err := table.Get(id)
			if err != nil {
				gctx.AbortWithStatusJSON(http.StatusNotFound, errors.ErrSessionNotFound)
				return
			}
			gctx.Set("Session", sess)
			gctx.Next()
			return
		}

		if id == "" {
			id = session.NewSessionID()
			logger.WithCtx(gctx).Debug().Str("Session", id).Msg("Issuing new session")
		}
		gctx.SetSameSite(http.SameSiteLaxMode)
		gctx.SetCookie(SessionCookie, id, sessionCookieMaxAge, "/", "", secure, true)
		gctx.Set("Session", table.GetOrCreate(id))
		gctx.Next()
	}
}
