// Service layer of the internal package metrics.

package metrics

import (
	"Tabcast/internal/entity"
	"Tabcast/pkg/log"
	"context"
	"sync"
	"time"
)

// Source computes live counters, implemented by session.Table.
type Source interface {
	Snapshot() entity.Metrics
}

// Service layer of internal package metrics which encapsulates metrics logic of Tabcast.
type Service interface {
	// live Tabcast metrics
	Snapshot(ctx context.Context) entity.Metrics
	// last Tabcast metrics saved to the DB
	GetMetrics(ctx context.Context) (entity.Metrics, error)
	// saves the live metrics every interval until Cleanup is called
	Publish(ctx context.Context, interval time.Duration)
	// stops Publish
	Cleanup(ctx context.Context) error
}

// Object of this will be passed around from main to routers to API.
// Helps to access the service layer interface and call methods.
// A nil metricsRepo keeps metrics in memory only.
type service struct {
	source      Source
	metricsRepo Repository
	logger      log.Logger

	once sync.Once
	stop chan struct{}
}

func NewService(source Source, metricsRepo Repository, logger log.Logger) Service {
	return &service{source: source, metricsRepo: metricsRepo, logger: logger, stop: make(chan struct{})}
}

func (s *service) Snapshot(ctx context.Context) entity.Metrics {
	return s.source.Snapshot()
}

func (s *service) GetMetrics(ctx context.Context) (entity.Metrics, error) {
	if s.metricsRepo == nil {
		return s.Snapshot(ctx), nil
	}
	return s.metricsRepo.GetMetrics(ctx, s.logger)
}

func (s *service) Publish(ctx context.Context, interval time.Duration) {
	if s.metricsRepo == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.WithCtx(ctx).Info().Msg("Launching metrics publisher")
	for {
		select {
		case <-ticker.C:
			s.publish(ctx)
		case <-s.stop:
			// last numbers before shutting down
			s.publish(ctx)
			s.logger.WithCtx(ctx).Info().Msg("Successfully stopped metrics publisher")
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *service) publish(ctx context.Context) {
	metrics := s.Snapshot(ctx)
	if err := s.metricsRepo.SetOrUpdateMetrics(ctx, s.logger, &metrics); err != nil {
		return
	}
	s.logger.WithCtx(ctx).Debug().Int("Sessions", metrics.ActiveSessions).Int("Tabs", metrics.ActiveTabs).Msg("Published metrics")
}

func (s *service) Cleanup(ctx context.Context) error {
	s.once.Do(func() { close(s.stop) })
	return nil
}
