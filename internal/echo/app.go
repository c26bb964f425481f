// Reference application bound to every tab in Tabcast: it sends each client message back to its tab.

package echo

import (
	"Tabcast/internal/session"
	"Tabcast/internal/tab"
	"Tabcast/pkg/log"
	"encoding/json"
)

// Reply wraps an echoed client message.
type Reply struct {
	Echo json.RawMessage `json:"echo"`
}

type app struct {
	tab    *tab.Tab
	logger log.Logger
}

// Factory builds an echo app for every new tab.
func Factory(logger log.Logger) session.AppFactory {
	return func(t *tab.Tab) tab.AppTab {
		return &app{tab: t, logger: logger.WithTab(t.SessionID(), t.ID())}
	}
}

func (a *app) Receive(msg json.RawMessage) {
	reply, mrsherr := json.Marshal(Reply{Echo: msg})
	if mrsherr != nil {
		a.logger.Error().Err(mrsherr).Msg("Error occured during execution of json.Marshal() in echo.Receive")
		return
	}
	if err := a.tab.Send(reply); err != nil {
		a.logger.Warn().Err(err).Msg("Couldn't echo message")
	}
}

func (a *app) TabClosed() {
	a.logger.Debug().Msg("Echo app released")
}
