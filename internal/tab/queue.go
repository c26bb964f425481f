// Ordered buffer of outbound events for a single tab in Tabcast.

package tab

import (
	"encoding/json"
	"sync"
)

// Queue holds events that are waiting for a long-poll, oldest first.
type Queue struct {
	mu      sync.Mutex
	pending []json.RawMessage
}

// Enqueue appends a copy of event to the tail of the queue.
func (q *Queue) Enqueue(event json.RawMessage) {
	ev := make(json.RawMessage, len(event))
	copy(ev, event)
	q.mu.Lock()
	q.pending = append(q.pending, ev)
	q.mu.Unlock()
}

// DrainAll removes and returns every queued event in FIFO order.
// The result is empty, never nil, when nothing was queued.
func (q *Queue) DrainAll() []json.RawMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return []json.RawMessage{}
	}
	drained := q.pending
	q.pending = nil
	return drained
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
