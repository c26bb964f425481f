// Structure of Tab Status and tab request models in Tabcast.

package entity

// Saved in DB as tab:<session_id>:<tab_id>
type TabStatus struct {
	SessionID  string `json:"session_id" redis:"session_id"`
	TabID      uint64 `json:"tab_id" redis:"tab_id"`
	UserID     string `json:"user_id,omitempty" redis:"user_id"`
	QueueDepth int    `json:"queue_depth" redis:"queue_depth"`
	// Unix milliseconds taken from the tab clock.
	Timestamp int64 `json:"timestamp" redis:"timestamp"`
	Served    bool  `json:"served" redis:"served"`
}

// URI parameters of every /api/tabs/:tab route.
type TabParams struct {
	TabID string `uri:"tab" valid:"required,tabid~tab:Tab ID must be a positive integer"`
}

// Response sent back after a tab has been created.
type CreatedTab struct {
	SessionID string `json:"session_id"`
	TabID     uint64 `json:"tab_id"`
}
