package tab

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueueDrainAllKeepsOrder(t *testing.T) {
	var q Queue
	q.Enqueue(json.RawMessage(`1`))
	q.Enqueue(json.RawMessage(`{"a":2}`))
	q.Enqueue(json.RawMessage(`"three"`))
	assert.Equal(t, 3, q.Len())

	drained := q.DrainAll()
	assert.Equal(t, []json.RawMessage{json.RawMessage(`1`), json.RawMessage(`{"a":2}`), json.RawMessage(`"three"`)}, drained)
	assert.Equal(t, 0, q.Len())
}

func TestQueueDrainEmpty(t *testing.T) {
	var q Queue
	drained := q.DrainAll()
	assert.NotNil(t, drained)
	assert.Empty(t, drained)
}

func TestQueueStoresCopy(t *testing.T) {
	var q Queue
	ev := json.RawMessage(`[1]`)
	q.Enqueue(ev)
	ev[1] = '2'
	assert.Equal(t, json.RawMessage(`[1]`), q.DrainAll()[0])
}

func TestTimeoutPolicyBoundaries(t *testing.T) {
	p := TimeoutPolicy{PollTimeout: 30 * time.Second, IdleTimeout: time.Minute}
	start := time.Unix(1000, 0)

	assert.False(t, p.PollExpired(start, start.Add(30*time.Second-time.Nanosecond)))
	assert.True(t, p.PollExpired(start, start.Add(30*time.Second)))
	assert.False(t, p.IdleExpired(start, start.Add(59*time.Second)))
	assert.True(t, p.IdleExpired(start, start.Add(time.Minute)))
}
