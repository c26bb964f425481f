// Exposes all of the REST APIs related to long-poll tabs in Tabcast.

package longpoll

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/internal/session"
	"Tabcast/pkg/log"
	"Tabcast/pkg/middlewares"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/asaskevich/govalidator"
	"github.com/gin-gonic/gin"
)

// Registers all of the REST API handlers related to internal package longpoll onto the gin server.
// identify may be nil when requests carry no user.
func APIHandlers(router *gin.Engine, service Service, table *session.Table, identify gin.HandlerFunc, secureCookie bool, logger log.Logger) {
	if identify == nil {
		identify = func(gctx *gin.Context) { gctx.Next() }
	}
	existing := SessionMiddleware(table, false, secureCookie, logger)
	tabsGroup := router.Group("/api/tabs")
	{
		tabsGroup.POST("", identify, SessionMiddleware(table, true, secureCookie, logger), createTab(service, logger))
		tabsGroup.POST("/events", existing, broadcast(service, logger))
		tabsGroup.GET("/:tab/poll", existing, middlewares.LongPollMiddleware(), poll(service, logger))
		tabsGroup.POST("/:tab/events", existing, send(service, logger))
		tabsGroup.POST("/:tab/messages", existing, receive(service, logger))
		tabsGroup.DELETE("/:tab", existing, closeTab(service, logger))
	}
}

// createTab returns a handler which opens a tab in the caller's session.
func createTab(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		// UserID is only present when an identity middleware ran
		userID := gctx.GetString("UserID")
		gctx.JSON(http.StatusCreated, service.CreateTab(gctx, sess, userID))
	}
}

// poll returns a handler which holds the request open until the tab completes it.
func poll(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		tabID, ok := bindTabID(gctx)
		if !ok {
			return
		}

		w := newPollWriter(gctx)
		handle, err := service.Serve(gctx, sess, tabID, w)
		if err != nil {
			abortWithError(gctx, err)
			return
		}
		if handle.Attached() {
			select {
			case <-w.done:
			case <-gctx.Request.Context().Done():
				if service.Abandon(gctx, sess, tabID, handle) {
					logger.WithCtx(gctx).Debug().Uint64("Tab", tabID).Msg("Client left before the poll completed")
					return
				}
				// a completion already owns the writer, let it finish
				<-w.done
			}
		}
		if w.err != nil && !w.wrote {
			abortWithError(gctx, w.err)
		}
	}
}

// send returns a handler which queues the request body as an event for one tab.
func send(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		tabID, ok := bindTabID(gctx)
		if !ok {
			return
		}
		event, ok := readJSONBody(gctx, logger)
		if !ok {
			return
		}
		if err := service.Send(gctx, sess, tabID, event); err != nil {
			abortWithError(gctx, err)
			return
		}
		gctx.Status(http.StatusAccepted)
	}
}

// broadcast returns a handler which queues the request body as an event for every tab of the session.
func broadcast(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		event, ok := readJSONBody(gctx, logger)
		if !ok {
			return
		}
		gctx.JSON(http.StatusAccepted, gin.H{"delivered": service.Broadcast(gctx, sess, event)})
	}
}

// receive returns a handler which routes a client message to the tab's application.
func receive(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		tabID, ok := bindTabID(gctx)
		if !ok {
			return
		}
		msg, ok := readJSONBody(gctx, logger)
		if !ok {
			return
		}
		if err := service.Receive(gctx, sess, tabID, msg); err != nil {
			abortWithError(gctx, err)
			return
		}
		gctx.Status(http.StatusAccepted)
	}
}

// closeTab returns a handler which closes a tab on behalf of the client.
func closeTab(service Service, logger log.Logger) gin.HandlerFunc {
	return func(gctx *gin.Context) {
		sess, ok := sessionFrom(gctx, logger)
		if !ok {
			return
		}
		tabID, ok := bindTabID(gctx)
		if !ok {
			return
		}
		if err := service.CloseTab(gctx, sess, tabID); err != nil {
			abortWithError(gctx, err)
			return
		}
		gctx.Status(http.StatusNoContent)
	}
}

// Fetch the session populated by SessionMiddleware.
func sessionFrom(gctx *gin.Context, logger log.Logger) (*session.Session, bool) {
	sess, ok := gctx.Value("Session").(*session.Session)
	if !ok {
		// Type assertion error
		logger.WithCtx(gctx).Error().Msg("Type assertion error in longpoll.sessionFrom")
		gctx.AbortWithStatusJSON(http.StatusInternalServerError, errors.InternalServerError(""))
		return nil, false
	}
	return sess, true
}

// Validate and parse the :tab path parameter.
func bindTabID(gctx *gin.Context) (uint64, bool) {
	var params entity.TabParams
	if binderr := gctx.ShouldBindUri(&params); binderr != nil {
		gctx.AbortWithStatusJSON(http.StatusBadRequest, errors.BadRequest(""))
		return 0, false
	}
	if _, valerr := govalidator.ValidateStruct(params); valerr != nil {
		valerrs, ok := valerr.(govalidator.Errors)
		if !ok {
			valerrs = govalidator.Errors{valerr}
		}
		resp := errors.GenerateValidationErrorResponse(valerrs.Errors())
		gctx.AbortWithStatusJSON(resp.Status, resp)
		return 0, false
	}
	// validated above
	tabID, _ := strconv.ParseUint(params.TabID, 10, 64)
	return tabID, true
}

// Read the raw request body which must be a single JSON value.
func readJSONBody(gctx *gin.Context, logger log.Logger) (json.RawMessage, bool) {
	body, readerr := gctx.GetRawData()
	if readerr != nil {
		logger.WithCtx(gctx).Warn().Err(readerr).Msg("Error occured while reading request body")
		gctx.AbortWithStatusJSON(http.StatusBadRequest, errors.BadRequest(""))
		return nil, false
	}
	if !json.Valid(body) {
		gctx.AbortWithStatusJSON(http.StatusBadRequest, errors.ErrInvalidEvent)
		return nil, false
	}
	return json.RawMessage(body), true
}

func abortWithError(gctx *gin.Context, err error) {
	resp, ok := err.(errors.ErrorResponse)
	if !ok {
		resp = errors.InternalServerError("")
	}
	gctx.AbortWithStatusJSON(errors.Status(resp), resp)
}
