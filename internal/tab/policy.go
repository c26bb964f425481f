package tab

import "time"

// TimeoutPolicy bounds how long a poll may stay open and how long a tab may sit unpolled.
type TimeoutPolicy struct {
	// Maximum time a long-poll is held open before it completes with whatever is queued.
	PollTimeout time.Duration
	// Time without activity after which an unpolled tab expires.
	IdleTimeout time.Duration
}

// PollExpired reports whether a poll attached at servedAt has timed out at now.
func (p TimeoutPolicy) PollExpired(servedAt, now time.Time) bool {
	return now.Sub(servedAt) >= p.PollTimeout
}

// IdleExpired reports whether a tab last active at lastActivity has expired at now.
func (p TimeoutPolicy) IdleExpired(lastActivity, now time.Time) bool {
	return now.Sub(lastActivity) >= p.IdleTimeout
}
