// Collaborators a tab talks to in Tabcast.

package tab

import (
	"Tabcast/internal/entity"
	"encoding/json"
	"time"
)

// Writer is the sink of a single long-poll response.
type Writer interface {
	// Write hands the whole poll document to the connection. False means the connection is gone.
	Write(body []byte) bool
	// Flush pushes buffered bytes to the client. False means the connection is gone.
	Flush() bool
	// End completes the poll. A nil error follows a successful Write, anything else is the reason the poll ended without data.
	End(err error)
}

// StatusListener observes the lifecycle of tabs.
type StatusListener interface {
	UpdateTabStatus(status entity.TabStatus)
	TabClosed(sessionID string, tabID uint64)
}

// AppTab is the application handler bound to a tab.
type AppTab interface {
	// Receive gets a message sent by the client to this tab.
	Receive(msg json.RawMessage)
	// TabClosed is called once when the tab closes.
	TabClosed()
}

// Owner is the session holding a tab.
type Owner interface {
	// NotifyTabExpired asks the owner to close an idle tab whose last activity was at lastActivity.
	// The owner closes it through Tab.CloseIfIdleSince.
	NotifyTabExpired(tabID uint64, lastActivity time.Time)
	// ForgetTab drops a closed tab from the owner.
	ForgetTab(tabID uint64)
}

type nopListener struct{}

func (nopListener) UpdateTabStatus(entity.TabStatus) {}
func (nopListener) TabClosed(string, uint64)         {}
