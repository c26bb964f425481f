package session

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/internal/tab"
	"Tabcast/pkg/clock"
	"Tabcast/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateSingleWinner(t *testing.T) {
	table, _, _ := newTable(nil)

	results := make([]*Session, 32)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = table.GetOrCreate("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.Equal(t, 1, table.Len())
}

func TestGetUnknownSession(t *testing.T) {
	table, _, _ := newTable(nil)
	_, err := table.Get("missing")
	assert.Equal(t, errors.ErrSessionNotFound, err)

	created := table.GetOrCreate("present")
	got, err := table.Get("present")
	require.NoError(t, err)
	assert.Same(t, created, got)
}

func TestNewSessionIDIsUnique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
	assert.Len(t, NewSessionID(), 36)
}

func TestTableMaintenanceReapsEmptySessions(t *testing.T) {
	table, clk, _ := newTable(nil)
	busy := table.GetOrCreate("busy")
	busy.CreateTab("")
	table.GetOrCreate("empty")

	clk.Advance(policy.IdleTimeout - time.Second)
	busy.CreateTab("")
	table.DoMaintenance(clk.Now())
	assert.Equal(t, []string{"busy", "empty"}, table.IDs())

	clk.Advance(time.Second)
	table.DoMaintenance(clk.Now())
	// first tab of busy expired, the second one keeps the session alive
	assert.Equal(t, []string{"busy"}, table.IDs())
	assert.Equal(t, []uint64{2}, busy.TabIDs())
}

func TestGetOrCreateKeepsIdleSessionAlive(t *testing.T) {
	table, clk, _ := newTable(nil)
	s := table.GetOrCreate("s1")

	clk.Advance(policy.IdleTimeout)
	// the returned session has just been touched, the sweep leaves it for the caller
	assert.Same(t, s, table.GetOrCreate("s1"))
	table.DoMaintenance(clk.Now())
	assert.Equal(t, []string{"s1"}, table.IDs())

	s.CreateTab("")
	got, err := table.Get("s1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Len())
}

func TestSnapshot(t *testing.T) {
	table, _, _ := newTable(nil)
	s := table.GetOrCreate("s1")
	first := s.CreateTab("")
	s.CreateTab("")
	table.GetOrCreate("s2")

	tb, err := s.GetTab(first)
	require.NoError(t, err)
	_, err = tb.Serve(&writer{})
	require.NoError(t, err)
	require.NoError(t, s.Send(2, json.RawMessage(`1`)))
	require.NoError(t, s.Send(2, json.RawMessage(`2`)))

	assert.Equal(t, entity.Metrics{ActiveSessions: 2, ActiveTabs: 2, ServedTabs: 1, QueuedEvents: 2}, table.Snapshot())
}

func TestTableClose(t *testing.T) {
	table, _, l := newTable(nil)
	s := table.GetOrCreate("s1")
	id := s.CreateTab("")

	table.Close()
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, 1, l.closed[id])
}

func TestSchedulerSweepsAndRearms(t *testing.T) {
	clk := clock.NewManual(time.Unix(1_700_000_000, 0))
	// without one-shot timers polls only time out through the sweep
	table := NewTable(tab.Config{Policy: policy, Clock: clk}, nil)
	s := table.GetOrCreate("s1")
	tb, err := s.GetTab(s.CreateTab(""))
	require.NoError(t, err)
	w := &writer{}
	_, err = tb.Serve(w)
	require.NoError(t, err)

	scheduler := NewScheduler(table, clk, 10*time.Second, log.Nop())
	scheduler.Start()
	scheduler.Start()
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(20 * time.Second)
	assert.Empty(t, w.bodies)
	clk.Advance(10 * time.Second)
	assert.Equal(t, []string{`[]`}, w.bodies)

	scheduler.Stop()
	assert.Equal(t, 0, clk.Pending())
	clk.Advance(policy.IdleTimeout)
	assert.False(t, tb.Closed())
}

func TestSchedulerExpiresIdleTabs(t *testing.T) {
	table, clk, l := newTable(nil)
	s := table.GetOrCreate("s1")
	id := s.CreateTab("")

	scheduler := NewScheduler(table, clk, 30*time.Second, nil)
	scheduler.Start()
	defer scheduler.Stop()

	clk.Advance(policy.IdleTimeout)
	assert.Equal(t, 1, l.closed[id])
	assert.Equal(t, 0, s.Len())
}
