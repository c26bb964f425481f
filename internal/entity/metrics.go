// Structure of Tabcast Metrics Model.

package entity

type Metrics struct {
	// Sessions currently held by the session table
	ActiveSessions int `json:"active_sessions" redis:"active_sessions"`
	// Open tabs across all sessions
	ActiveTabs int `json:"active_tabs" redis:"active_tabs"`
	// Tabs with a long-poll attached
	ServedTabs int `json:"served_tabs" redis:"served_tabs"`
	// Events waiting for a poll across all tabs
	QueuedEvents int `json:"queued_events" redis:"queued_events"`
	// High-water marks, only known to the saved metrics
	PeakSessions int `json:"peak_sessions,omitempty" redis:"peak_sessions"`
	PeakTabs     int `json:"peak_tabs,omitempty" redis:"peak_tabs"`
	// Unix seconds of the last save
	UpdatedAt int64 `json:"updated_at,omitempty" redis:"updated_at"`
}
