// Session of Tabcast: the set of tabs opened by one browser.

package session

import (
	"Tabcast/internal/errors"
	"Tabcast/internal/tab"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

// AppFactory builds the application bound to a newly created tab.
// Returning nil leaves the tab without an application.
type AppFactory func(t *tab.Tab) tab.AppTab

// Session routes events to the tabs it owns.
type Session struct {
	id      string
	cfg     tab.Config
	factory AppFactory

	mu          sync.Mutex
	tabs        map[uint64]*tab.Tab
	userID      string
	nextTabID   uint64
	lastTouched time.Time
}

func newSession(id string, cfg tab.Config, factory AppFactory) *Session {
	return &Session{
		id:          id,
		cfg:         cfg,
		factory:     factory,
		tabs:        make(map[uint64]*tab.Tab),
		lastTouched: cfg.Clock.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// CreateTab opens a new tab and returns its id. Ids start at 1 and are never reused.
// initialUserID becomes the session user when the session has none yet.
func (s *Session) CreateTab(initialUserID string) uint64 {
	s.mu.Lock()
	if s.userID == "" {
		s.userID = initialUserID
	}
	s.nextTabID++
	id := s.nextTabID
	t := tab.New(s.id, id, s.userID, s, s.cfg)
	s.tabs[id] = t
	s.lastTouched = s.cfg.Clock.Now()
	s.mu.Unlock()

	if s.factory != nil {
		if app := s.factory(t); app != nil {
			// only fails when the tab was closed in between
			_ = t.AttachApp(app)
		}
	}
	s.cfg.Logger.WithTab(s.id, id).Info().Msg("Tab created")
	return id
}

// GetTab returns errors.ErrTabNotFound for unknown or closed tabs.
func (s *Session) GetTab(tabID uint64) (*tab.Tab, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tabs[tabID]
	if !ok {
		return nil, errors.ErrTabNotFound
	}
	s.lastTouched = s.cfg.Clock.Now()
	return t, nil
}

// Send delivers event to one tab.
func (s *Session) Send(tabID uint64, event json.RawMessage) error {
	t, err := s.GetTab(tabID)
	if err != nil {
		return err
	}
	return t.Send(event)
}

// Broadcast sends event to every tab of the session and returns how many accepted it.
func (s *Session) Broadcast(event json.RawMessage) int {
	delivered := 0
	for _, t := range s.snapshot() {
		if err := t.Send(event); err == nil {
			delivered++
		}
	}
	return delivered
}

// CloseTab removes and closes a tab.
func (s *Session) CloseTab(tabID uint64) error {
	s.mu.Lock()
	t, ok := s.tabs[tabID]
	delete(s.tabs, tabID)
	s.lastTouched = s.cfg.Clock.Now()
	s.mu.Unlock()
	if !ok {
		return errors.ErrTabNotFound
	}
	t.Close()
	return nil
}

// NotifyTabExpired is called by an idle tab. The tab is closed unless it saw activity
// after lastActivity, and leaves the session through ForgetTab like any closed tab.
func (s *Session) NotifyTabExpired(tabID uint64, lastActivity time.Time) {
	s.mu.Lock()
	t, ok := s.tabs[tabID]
	s.mu.Unlock()
	if !ok {
		return
	}
	t.CloseIfIdleSince(lastActivity)
}

// ForgetTab is called by a tab once it has closed.
func (s *Session) ForgetTab(tabID uint64) {
	s.mu.Lock()
	delete(s.tabs, tabID)
	s.mu.Unlock()
}

// ChangeUser switches the user of the session. Open tabs keep the user they were created with.
func (s *Session) ChangeUser(userID string) {
	s.mu.Lock()
	s.userID = userID
	s.mu.Unlock()
}

func (s *Session) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// TabIDs returns the ids of open tabs in ascending order.
func (s *Session) TabIDs() []uint64 {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.tabs))
	for id := range s.tabs {
		ids = append(ids, id)
	}
	s.mu.Unlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs)
}

// DoMaintenance applies the timeout policy to every tab.
func (s *Session) DoMaintenance(now time.Time) {
	for _, t := range s.snapshot() {
		t.DoMaintenance(now)
	}
}

// Close closes every tab of the session.
func (s *Session) Close() {
	for _, t := range s.snapshot() {
		t.Close()
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastTouched = s.cfg.Clock.Now()
	s.mu.Unlock()
}

// Reports whether the session holds no tab and hasn't been touched since before now-idle.
func (s *Session) reapable(now time.Time, idle time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tabs) == 0 && now.Sub(s.lastTouched) >= idle
}

// Tabs ordered by id, so tab locks are never taken under the session lock.
func (s *Session) snapshot() []*tab.Tab {
	s.mu.Lock()
	tabs := make([]*tab.Tab, 0, len(s.tabs))
	for _, t := range s.tabs {
		tabs = append(tabs, t)
	}
	s.mu.Unlock()
	sort.Slice(tabs, func(i, j int) bool { return tabs[i].ID() < tabs[j].ID() })
	return tabs
}
