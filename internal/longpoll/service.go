// Service layer of long-poll tabs in Tabcast.

package longpoll

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/session"
	"Tabcast/internal/tab"
	"Tabcast/pkg/log"
	"context"
	"encoding/json"
)

type Service interface {
	// Opens a tab in sess on behalf of userID, which may be empty.
	CreateTab(ctx context.Context, sess *session.Session, userID string) entity.CreatedTab
	// Offers w to the tab. Only returns once w is either completed or parked.
	Serve(ctx context.Context, sess *session.Session, tabID uint64, w tab.Writer) (tab.Handle, error)
	// Detaches a parked poll whose client went away.
	Abandon(ctx context.Context, sess *session.Session, tabID uint64, h tab.Handle) bool
	// Queues event for one tab.
	Send(ctx context.Context, sess *session.Session, tabID uint64, event json.RawMessage) error
	// Queues event for every tab of the session.
	Broadcast(ctx context.Context, sess *session.Session, event json.RawMessage) int
	// Routes a client message to the tab's application.
	Receive(ctx context.Context, sess *session.Session, tabID uint64, msg json.RawMessage) error
	// Closes one tab.
	CloseTab(ctx context.Context, sess *session.Session, tabID uint64) error
}

type service struct {
	logger log.Logger
}

func NewService(logger log.Logger) Service {
	return service{logger: logger}
}

// A request identified as another user than the session's switches the session over,
// tabs already open keep their user.
func (s service) CreateTab(ctx context.Context, sess *session.Session, userID string) entity.CreatedTab {
	if current := sess.UserID(); userID != "" && current != "" && current != userID {
		s.logger.WithCtx(ctx).Info().Str("Session", sess.ID()).Str("From", current).Str("To", userID).Msg("Session changed user")
		sess.ChangeUser(userID)
	}
	id := sess.CreateTab(userID)
	s.logger.WithCtx(ctx).Debug().Str("Session", sess.ID()).Uint64("Tab", id).Msg("Created tab over HTTP")
	return entity.CreatedTab{SessionID: sess.ID(), TabID: id}
}

func (s service) Serve(ctx context.Context, sess *session.Session, tabID uint64, w tab.Writer) (tab.Handle, error) {
	t, err := sess.GetTab(tabID)
	if err != nil {
		return tab.Handle{}, err
	}
	return t.Serve(w)
}

func (s service) Abandon(ctx context.Context, sess *session.Session, tabID uint64, h tab.Handle) bool {
	t, err := sess.GetTab(tabID)
	if err != nil {
		return false
	}
	return t.Abandon(h)
}

func (s service) Send(ctx context.Context, sess *session.Session, tabID uint64, event json.RawMessage) error {
	return sess.Send(tabID, event)
}

func (s service) Broadcast(ctx context.Context, sess *session.Session, event json.RawMessage) int {
	delivered := sess.Broadcast(event)
	s.logger.WithCtx(ctx).Debug().Str("Session", sess.ID()).Int("Delivered", delivered).Msg("Broadcast event")
	return delivered
}

func (s service) Receive(ctx context.Context, sess *session.Session, tabID uint64, msg json.RawMessage) error {
	t, err := sess.GetTab(tabID)
	if err != nil {
		return err
	}
	return t.Receive(msg)
}

func (s service) CloseTab(ctx context.Context, sess *session.Session, tabID uint64) error {
	return sess.CloseTab(tabID)
}
