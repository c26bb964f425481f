// Closes open external connections before shutting down Tabcast.
// Inspired from https://medium.com/tokopedia-engineering/gracefully-shutdown-your-go-application-9e7d5c73b5ac

package cleanup

import (
	"Tabcast/pkg/log"
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// operation is a clean up function standard.
type Operation func(ctx context.Context) error

// Stage is a set of operations run concurrently. Stages run one after the other.
type Stage map[string]Operation

// Called when the timeout elapses before every stage finished.
var forceExit = func() { os.Exit(3) }

// GracefulShutdown function waits for termination system-calls and performs clean-up operations.
func GracefulShutdown(ctx context.Context, logger log.Logger, timeout time.Duration, stages ...Stage) <-chan bool {
	wait := make(chan bool)

	// buffered channel to receive shutdown signal, registered before returning so no signal is missed
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(s)
		select {
		case sig := <-s:
			logger.Warn().Str("Signal", sig.String()).Msg("Graceful shutdown in progress.")
		case <-ctx.Done():
			logger.Warn().Msg("Context done, graceful shutdown in progress.")
		}

		Shutdown(context.Background(), logger, timeout, stages...)
		close(wait)
	}()

	return wait
}

// Shutdown runs stages right away and forces the process out once timeout has elapsed.
func Shutdown(ctx context.Context, logger log.Logger, timeout time.Duration, stages ...Stage) {
	// Force exit after timeout duration has been elapsed
	force := time.AfterFunc(timeout, func() {
		logger.Warn().Msgf("Timeout of %fs has been elapsed. Forcing shutdown!", timeout.Seconds())
		forceExit()
	})
	defer force.Stop()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for _, stage := range stages {
		// Executing the cleanup operations of a stage asynchronously for better performance
		var wg sync.WaitGroup
		for opname, op := range stage {
			// Adding task to be executed asynchronously
			wg.Add(1)
			go func(opname string, op Operation) {
				defer wg.Done()
				logger.Info().Msgf("Shutting down: %s", opname)
				if err := op(ctx); err != nil {
					logger.Error().Err(err).Msgf("%s shutdown failed.", opname)
					return
				}
				logger.Info().Msgf("%s shutdown completed.", opname)
			}(opname, op)
		}
		// Wait for all of the tasks to finish
		wg.Wait()
	}
}
