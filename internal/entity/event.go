// Structure of the long-poll event envelope in Tabcast.

package entity

import "encoding/json"

// EventType is the only envelope type carried by a completed poll.
const EventType = "event"

// Envelope wraps one queued event inside a completed poll document.
// A completed poll serializes as a JSON array of envelopes, "[]" when empty.
type Envelope struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// NewEnvelopes wraps events in order.
func NewEnvelopes(events []json.RawMessage) []Envelope {
	envelopes := make([]Envelope, 0, len(events))
	for _, ev := range events {
		envelopes = append(envelopes, Envelope{Type: EventType, Value: ev})
	}
	return envelopes
}
