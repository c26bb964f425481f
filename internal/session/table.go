// Table of live sessions in Tabcast.

package session

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/internal/tab"
	"Tabcast/pkg/clock"
	"Tabcast/pkg/log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Table holds every session of the process. It is built once in main and
// handed to whatever needs it.
type Table struct {
	cfg     tab.Config
	factory AppFactory

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewTable creates an empty table. Every tab created through it uses cfg.
func NewTable(cfg tab.Config, factory AppFactory) *Table {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Table{
		cfg:      cfg,
		factory:  factory,
		sessions: make(map[string]*Session),
	}
}

// NewSessionID generates an id for a session that is about to be created.
func NewSessionID() string {
	return uuid.NewString()
}

// GetOrCreate returns the session with id, creating it when absent.
// Concurrent callers with the same id all get the same session.
func (t *Table) GetOrCreate(id string) *Session {
	t.mu.RLock()
	s, ok := t.sessions[id]
	if ok {
		// under the read lock, so the sweep can't reap it before the caller uses it
		s.touch()
		t.mu.RUnlock()
		return s
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.sessions[id]; ok {
		return s
	}
	s = newSession(id, t.cfg, t.factory)
	t.sessions[id] = s
	t.cfg.Logger.Info().Str("Session", id).Msg("Session created")
	return s
}

// Get returns errors.ErrSessionNotFound for unknown ids.
func (t *Table) Get(id string) (*Session, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s, ok := t.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}
	s.touch()
	return s, nil
}

// IDs returns the ids of every session, sorted.
func (t *Table) IDs() []string {
	t.mu.RLock()
	ids := make([]string, 0, len(t.sessions))
	for id := range t.sessions {
		ids = append(ids, id)
	}
	t.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// DoMaintenance sweeps every session, then drops sessions left without tabs for IdleTimeout.
func (t *Table) DoMaintenance(now time.Time) {
	for _, s := range t.all() {
		s.DoMaintenance(now)
	}

	idle := t.cfg.Policy.IdleTimeout
	t.mu.Lock()
	for id, s := range t.sessions {
		if s.reapable(now, idle) {
			delete(t.sessions, id)
			t.cfg.Logger.Info().Str("Session", id).Msg("Reaped empty session")
		}
	}
	t.mu.Unlock()
}

// Snapshot counts sessions, tabs, attached polls and queued events.
func (t *Table) Snapshot() entity.Metrics {
	sessions := t.all()
	m := entity.Metrics{ActiveSessions: len(sessions)}
	for _, s := range sessions {
		for _, tb := range s.snapshot() {
			status := tb.Status()
			m.ActiveTabs++
			m.QueuedEvents += status.QueueDepth
			if status.Served {
				m.ServedTabs++
			}
		}
	}
	return m
}

// Close closes every tab of every session and empties the table.
func (t *Table) Close() {
	sessions := t.all()
	t.mu.Lock()
	t.sessions = make(map[string]*Session)
	t.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
}

func (t *Table) all() []*Session {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sessions := make([]*Session, 0, len(t.sessions))
	for _, s := range t.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}
