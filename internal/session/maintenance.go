// Periodic maintenance sweep over the session table of Tabcast.

package session

import (
	"Tabcast/pkg/clock"
	"Tabcast/pkg/log"
	"context"
	"sync"
	"time"
)

// Scheduler runs Table.DoMaintenance every interval using one-shot timers that re-arm themselves.
type Scheduler struct {
	table    *Table
	clock    clock.Clock
	interval time.Duration
	logger   log.Logger

	mu      sync.Mutex
	cancel  clock.Cancel
	running bool
}

func NewScheduler(table *Table, clk clock.Clock, interval time.Duration, logger log.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Scheduler{table: table, clock: clk, interval: interval, logger: logger}
}

// Start arms the first sweep. Calling it on a running scheduler does nothing.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.armLocked()
	s.logger.Info().Dur("Interval", s.interval).Msg("Launching maintenance sweep")
}

// Stop cancels the pending sweep. A sweep already running finishes but doesn't re-arm.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.logger.Info().Msg("Successfully stopped maintenance sweep")
}

// Run sweeps until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	s.Start()
	<-ctx.Done()
	s.Stop()
}

func (s *Scheduler) armLocked() {
	s.cancel = s.clock.AfterFunc(s.interval, s.sweep)
}

func (s *Scheduler) sweep() {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	if !running {
		return
	}

	start := time.Now()
	s.table.DoMaintenance(s.clock.Now())
	s.logger.Debug().Dur("Took", time.Since(start)).Int("Sessions", s.table.Len()).Msg("Maintenance sweep done")

	s.mu.Lock()
	if s.running {
		s.armLocked()
	}
	s.mu.Unlock()
}
