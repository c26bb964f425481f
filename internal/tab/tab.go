// Long-poll tab state machine of Tabcast.

package tab

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/pkg/clock"
	"Tabcast/pkg/log"
	"encoding/json"
	"sync"
	"time"
)

// Config carries everything a session hands to the tabs it creates.
type Config struct {
	Policy   TimeoutPolicy
	Clock    clock.Clock
	Listener StatusListener
	Logger   log.Logger
	// Arm a timer per attached poll. Without it only DoMaintenance times polls out.
	OneShotTimers bool
}

// Handle identifies one attached poll, returned by Serve.
type Handle struct {
	generation uint64
	attached   bool
}

// Attached reports whether the poll was parked waiting for events.
// A poll served straight from the queue is already complete.
func (h Handle) Attached() bool {
	return h.attached
}

// Tab is one logical browser tab. It is Idle, Served (a writer is attached) or Closed.
type Tab struct {
	sessionID string
	id        uint64
	userID    string
	policy    TimeoutPolicy
	clock     clock.Clock
	listener  StatusListener
	owner     Owner
	oneShot   bool
	logger    log.Logger

	mu           sync.Mutex
	queue        Queue
	writer       Writer
	generation   uint64
	cancelTimer  clock.Cancel
	servedAt     time.Time
	lastActivity time.Time
	app          AppTab
	closed       bool

	// listener notices in the order their changes were made under mu
	notices   []notice
	notifying bool
}

type notice struct {
	status entity.TabStatus
	closed bool
}

// New creates an idle tab. owner may be nil, in which case an idle tab closes itself.
func New(sessionID string, id uint64, userID string, owner Owner, cfg Config) *Tab {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Listener == nil {
		cfg.Listener = nopListener{}
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Tab{
		sessionID:    sessionID,
		id:           id,
		userID:       userID,
		policy:       cfg.Policy,
		clock:        cfg.Clock,
		listener:     cfg.Listener,
		owner:        owner,
		oneShot:      cfg.OneShotTimers,
		logger:       cfg.Logger.WithTab(sessionID, id),
		lastActivity: cfg.Clock.Now(),
	}
}

func (t *Tab) ID() uint64 {
	return t.id
}

func (t *Tab) SessionID() string {
	return t.sessionID
}

func (t *Tab) UserID() string {
	return t.userID
}

// Send queues event. When a poll is attached the whole queue is delivered to it.
func (t *Tab) Send(event json.RawMessage) error {
	if !json.Valid(event) {
		return errors.ErrInvalidEvent
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Warn().Msg("Dropped event sent to a closed tab")
		return errors.ErrTabClosed
	}
	t.queue.Enqueue(event)
	t.lastActivity = t.clock.Now()
	var w Writer
	var batch []json.RawMessage
	if t.writer != nil {
		w = t.detachLocked()
		batch = t.queue.DrainAll()
	}
	t.noticeLocked()
	t.mu.Unlock()

	t.notify()
	if w != nil {
		t.logger.Debug().Int("Events", len(batch)).Msg("Completing poll on send")
		t.deliver(w, batch)
	}
	return nil
}

// Serve offers w as the sink for the next batch. Queued events are delivered
// immediately; otherwise w is parked until Send, poll timeout or Close.
// A second poll while one is attached gets ErrAlreadyServed and w is left untouched.
func (t *Tab) Serve(w Writer) (Handle, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		t.logger.Warn().Msg("Poll on a closed tab")
		return Handle{}, errors.ErrTabClosed
	}
	if t.writer != nil {
		t.mu.Unlock()
		t.logger.Warn().Msg("Rejected a second poll while one is attached")
		return Handle{}, errors.ErrAlreadyServed
	}
	now := t.clock.Now()
	t.lastActivity = now
	t.servedAt = now

	if t.queue.Len() > 0 {
		batch := t.queue.DrainAll()
		t.noticeLocked()
		t.mu.Unlock()
		t.notify()
		t.logger.Debug().Int("Events", len(batch)).Msg("Completing poll from queue")
		t.deliver(w, batch)
		return Handle{}, nil
	}

	t.writer = w
	t.generation++
	gen := t.generation
	if t.oneShot {
		t.cancelTimer = t.clock.AfterFunc(t.policy.PollTimeout, func() {
			t.expirePoll(gen)
		})
	}
	t.noticeLocked()
	t.mu.Unlock()
	t.notify()
	t.logger.Debug().Msg("Poll attached")
	return Handle{generation: gen, attached: true}, nil
}

// Abandon detaches the poll identified by h without draining the queue, used
// when the client hangs up. It returns false when the poll was already completed.
func (t *Tab) Abandon(h Handle) bool {
	if !h.attached {
		return false
	}
	t.mu.Lock()
	if t.closed || t.writer == nil || t.generation != h.generation {
		t.mu.Unlock()
		return false
	}
	t.detachLocked()
	t.lastActivity = t.clock.Now()
	t.noticeLocked()
	t.mu.Unlock()
	t.notify()
	t.logger.Debug().Msg("Poll abandoned by client")
	return true
}

// Completes the poll attached at generation gen. Stale generations are ignored.
func (t *Tab) expirePoll(gen uint64) {
	t.mu.Lock()
	if t.closed || t.writer == nil || t.generation != gen {
		t.mu.Unlock()
		return
	}
	w := t.detachLocked()
	batch := t.queue.DrainAll()
	t.lastActivity = t.clock.Now()
	t.noticeLocked()
	t.mu.Unlock()

	t.notify()
	t.logger.Debug().Int("Events", len(batch)).Msg("Poll timed out")
	t.deliver(w, batch)
}

// DoMaintenance applies the timeout policy at now: an attached poll older than
// PollTimeout completes, an idle tab older than IdleTimeout is expired.
func (t *Tab) DoMaintenance(now time.Time) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.writer != nil {
		expired := t.policy.PollExpired(t.servedAt, now)
		gen := t.generation
		t.mu.Unlock()
		if expired {
			t.expirePoll(gen)
		}
		return
	}
	seen := t.lastActivity
	expired := t.policy.IdleExpired(seen, now)
	t.mu.Unlock()
	if !expired {
		return
	}
	if t.owner != nil {
		t.owner.NotifyTabExpired(t.id, seen)
		return
	}
	t.CloseIfIdleSince(seen)
}

// Close moves the tab to Closed. An attached poll is ended with ErrTabClosed.
// Observers are notified only by the first call, which is the one returning true.
func (t *Tab) Close() bool {
	return t.close(nil)
}

// CloseIfIdleSince closes the tab only when no poll is attached and nothing happened
// on it after lastActivity, so a Send or Serve racing the expiry keeps the tab open.
func (t *Tab) CloseIfIdleSince(lastActivity time.Time) bool {
	closed := t.close(func() bool {
		return t.writer == nil && t.lastActivity.Equal(lastActivity)
	})
	if closed {
		t.logger.Info().Msg("Tab expired after being idle")
	}
	return closed
}

// still, when set, is checked under t.mu and vetoes the close by returning false.
func (t *Tab) close(still func() bool) bool {
	t.mu.Lock()
	if t.closed || (still != nil && !still()) {
		t.mu.Unlock()
		return false
	}
	t.closed = true
	w := t.detachLocked()
	app := t.app
	t.notices = append(t.notices, notice{status: entity.TabStatus{SessionID: t.sessionID, TabID: t.id}, closed: true})
	t.mu.Unlock()

	if w != nil {
		w.End(errors.ErrTabClosed)
	}
	if app != nil {
		app.TabClosed()
	}
	if t.owner != nil {
		t.owner.ForgetTab(t.id)
	}
	t.notify()
	t.logger.Info().Msg("Tab closed")
	return true
}

// Receive hands a client message to the attached application.
func (t *Tab) Receive(msg json.RawMessage) error {
	if !json.Valid(msg) {
		return errors.ErrInvalidEvent
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errors.ErrTabClosed
	}
	app := t.app
	if app == nil {
		t.mu.Unlock()
		return errors.ErrNoApp
	}
	t.lastActivity = t.clock.Now()
	t.mu.Unlock()
	app.Receive(msg)
	return nil
}

// AttachApp binds app to the tab, replacing any previous one.
func (t *Tab) AttachApp(app AppTab) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return errors.ErrTabClosed
	}
	t.app = app
	return nil
}

// Status returns a snapshot of the tab.
func (t *Tab) Status() entity.TabStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *Tab) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// Takes the attached writer off the tab. Must hold t.mu.
func (t *Tab) detachLocked() Writer {
	w := t.writer
	t.writer = nil
	t.generation++
	if t.cancelTimer != nil {
		t.cancelTimer()
		t.cancelTimer = nil
	}
	return w
}

// Queues a status update reflecting the change just made. Must hold t.mu.
func (t *Tab) noticeLocked() {
	t.notices = append(t.notices, notice{status: t.statusLocked()})
}

// Hands queued notices to the listener, oldest first. One goroutine drains at a time,
// a caller finding another one draining leaves its notices to it.
func (t *Tab) notify() {
	t.mu.Lock()
	if t.notifying {
		t.mu.Unlock()
		return
	}
	t.notifying = true
	for len(t.notices) > 0 {
		pending := t.notices
		t.notices = nil
		t.mu.Unlock()
		for _, n := range pending {
			if n.closed {
				t.listener.TabClosed(n.status.SessionID, n.status.TabID)
				continue
			}
			t.listener.UpdateTabStatus(n.status)
		}
		t.mu.Lock()
	}
	t.notifying = false
	t.mu.Unlock()
}

func (t *Tab) statusLocked() entity.TabStatus {
	return entity.TabStatus{
		SessionID:  t.sessionID,
		TabID:      t.id,
		UserID:     t.userID,
		QueueDepth: t.queue.Len(),
		Timestamp:  t.clock.Now().UnixMilli(),
		Served:     t.writer != nil,
	}
}

// Writes one poll document to w outside of the tab lock.
// A failed write closes the tab.
func (t *Tab) deliver(w Writer, batch []json.RawMessage) {
	body, mrsherr := json.Marshal(entity.NewEnvelopes(batch))
	if mrsherr != nil {
		t.logger.Error().Err(mrsherr).Msg("Error occured during execution of json.Marshal() in tab.deliver")
		w.End(errors.ErrTransport)
		t.Close()
		return
	}
	if !w.Write(body) || !w.Flush() {
		t.logger.Warn().Int("Events", len(batch)).Msg("Poll connection failed during delivery, closing tab")
		w.End(errors.ErrTransport)
		t.Close()
		return
	}
	w.End(nil)
}
