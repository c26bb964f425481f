// Service layer of internal package status which keeps the persisted tab status of Tabcast in sync.

package status

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/session"
	"Tabcast/pkg/log"
	"context"
	"sync"
	"time"
)

// Number of pending writes kept before new ones are dropped.
const backlog = 1024

// Service receives tab notifications and persists them off the caller's goroutine.
type Service interface {
	// UpdateTabStatus queues status to be saved.
	UpdateTabStatus(status entity.TabStatus)
	// TabClosed queues the removal of a tab.
	TabClosed(sessionID string, tabID uint64)
	// Launch the persistence worker, preferably in a goroutine for non-blockage
	Listen(ctx context.Context)
	// Status of every tab in sess, from the store when there is one.
	SessionStatus(ctx context.Context, sess *session.Session) ([]entity.TabStatus, error)
	// Stops the worker once pending writes are flushed or ctx is done.
	Cleanup(ctx context.Context) error
}

type operation struct {
	status entity.TabStatus
	closed bool
}

// Object of this will be passed around from main to routers to API.
// A nil repository keeps nothing and answers SessionStatus from memory.
type service struct {
	repo   Repository
	logger log.Logger

	ops  chan operation
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewService(repo Repository, logger log.Logger) Service {
	return &service{
		repo:   repo,
		logger: logger,
		ops:    make(chan operation, backlog),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (s *service) UpdateTabStatus(status entity.TabStatus) {
	s.enqueue(operation{status: status})
}

func (s *service) TabClosed(sessionID string, tabID uint64) {
	s.enqueue(operation{status: entity.TabStatus{SessionID: sessionID, TabID: tabID}, closed: true})
}

func (s *service) enqueue(op operation) {
	if s.repo == nil {
		return
	}
	select {
	case s.ops <- op:
	default:
		s.logger.Warn().Str("Session", op.status.SessionID).Uint64("Tab", op.status.TabID).Msg("Status backlog full, dropping update")
	}
}

func (s *service) Listen(ctx context.Context) {
	defer close(s.done)
	s.logger.WithCtx(ctx).Info().Msg("Launching tab status listener")
	for {
		select {
		case op := <-s.ops:
			s.persist(ctx, op)
		case <-s.stop:
			s.flush(ctx)
			s.logger.WithCtx(ctx).Info().Msg("Successfully stopped tab status listener")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Writes whatever is still queued.
func (s *service) flush(ctx context.Context) {
	for {
		select {
		case op := <-s.ops:
			s.persist(ctx, op)
		default:
			return
		}
	}
}

func (s *service) persist(ctx context.Context, op operation) {
	if op.closed {
		_ = s.repo.DeleteTabStatus(ctx, s.logger, op.status.SessionID, op.status.TabID)
		return
	}
	_ = s.repo.SaveTabStatus(ctx, s.logger, op.status)
}

func (s *service) SessionStatus(ctx context.Context, sess *session.Session) ([]entity.TabStatus, error) {
	if s.repo != nil {
		return s.repo.ListTabStatus(ctx, s.logger, sess.ID())
	}
	statuses := []entity.TabStatus{}
	for _, id := range sess.TabIDs() {
		t, err := sess.GetTab(id)
		if err != nil {
			// closed in between
			continue
		}
		statuses = append(statuses, t.Status())
	}
	return statuses, nil
}

func (s *service) Cleanup(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })
	if s.repo == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Second):
		s.logger.Warn().Msg("Tab status listener didn't stop in time")
		return nil
	}
}
