// Wires every Tabcast component together and runs the gin server until a shutdown signal arrives.

package main

import (
	"Tabcast/internal/config"
	"Tabcast/internal/echo"
	"Tabcast/internal/metrics"
	"Tabcast/internal/session"
	"Tabcast/internal/status"
	"Tabcast/internal/tab"
	"Tabcast/pkg/cleanup"
	"Tabcast/pkg/clock"
	"Tabcast/pkg/db"
	"Tabcast/pkg/globalcontext"
	"Tabcast/pkg/log"
	"Tabcast/pkg/middlewares"
	"Tabcast/pkg/validations"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Time given to every shutdown stage combined.
const shutdownTimeout = 10 * time.Second

// Stores opened for the configured STATUS_STORE.
type stores struct {
	statusRepo  status.Repository
	metricsRepo metrics.Repository
	closers     cleanup.Stage
}

func serve(cfg config.Config) error {
	log.SetLevel(cfg.LogLevel)
	logger := log.New(cfg.Version)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info().Msg(fmt.Sprintf("Welcome to Tabcast: v%s", cfg.Version))
	logger.Info().Msg(fmt.Sprintf("Tabcast Environment: %s", cfg.Env))

	// This is the preferred mode used by gin server in DEV environment.
	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	st, dberr := openStores(ctx, cfg, logger)
	if dberr != nil {
		return dberr
	}

	statusService := status.NewService(st.statusRepo, logger)
	go statusService.Listen(ctx)

	realClock := clock.Real()
	table := session.NewTable(tab.Config{
		Policy:        tab.TimeoutPolicy{PollTimeout: cfg.PollTimeout, IdleTimeout: cfg.TabIdleTimeout},
		Clock:         realClock,
		Listener:      statusService,
		Logger:        logger,
		OneShotTimers: cfg.PollTimers,
	}, echo.Factory(logger))

	scheduler := session.NewScheduler(table, realClock, cfg.SweepInterval, logger)
	scheduler.Start()

	metricsService := metrics.NewService(table, st.metricsRepo, logger)
	go metricsService.Publish(ctx, cfg.MetricsInterval)

	// Registers custom validations written to be used by govalidator.
	validations.RegisterCustomValidations(ctx, logger)

	// Initializing the gin server.
	server := gin.New()
	// Forcing gin to use custom Logger instead of the default one.
	server.Use(log.LoggerGinExtension(logger))
	server.Use(gin.Recovery())
	server.Use(globalcontext.UniqueIDMiddleware(logger))
	server.Use(middlewares.CorrelationMiddleware(logger))
	server.Use(middlewares.CORSMiddleware(cfg.CORSOrigin))

	// Running Router() which routes all of the REST API groups and paths.
	Router(server, cfg, table, statusService, metricsService, logger)

	// Write timeout stays unset, long-polls are held open for PollTimeout.
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.SrvAddr, cfg.SrvPort),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ListenAndServe is a blocking operation, putting it a goroutine
	failed := make(chan error, 1)
	go func() {
		if srverr := srv.ListenAndServe(); srverr != nil && !errors.Is(srverr, http.ErrServerClosed) {
			logger.Error().Err(srverr).Msg("Error occured during execution of ListenAndServe in main.serve")
			failed <- srverr
			cancel()
		}
	}()

	// Graceful shutdown of Tabcast server triggered due to system interruptions.
	wait := cleanup.GracefulShutdown(ctx, logger, shutdownTimeout,
		cleanup.Stage{
			"Maintenance": func(ctx context.Context) error {
				scheduler.Stop()
				table.Close()
				return nil
			},
		},
		cleanup.Stage{
			"Gin":     srv.Shutdown,
			"Status":  statusService.Cleanup,
			"Metrics": metricsService.Cleanup,
		},
		st.closers,
	)
	<-wait

	select {
	case srverr := <-failed:
		return srverr
	default:
		return nil
	}
}

// openStores connects to the store selected by cfg.StatusStore.
func openStores(ctx context.Context, cfg config.Config, logger log.Logger) (stores, error) {
	switch cfg.StatusStore {
	case config.StoreRedis:
		redisdb, dberr := db.NewDbConnection(ctx, logger, db.RedisOptions{
			Addr:         cfg.RedisAddr,
			Port:         cfg.RedisPort,
			Password:     cfg.RedisPassword,
			DB:           cfg.RedisDBNumber,
			TxMaxRetries: cfg.RedisTxMaxRetries,
		})
		if dberr != nil {
			return stores{}, dberr
		}
		// Sending a PING request to DB for connection status check.
		if dberr := redisdb.CheckDbConnection(ctx, logger); dberr != nil {
			_ = redisdb.CloseDbConnection(ctx)
			return stores{}, dberr
		}
		return stores{
			statusRepo:  status.NewRepository(redisdb),
			metricsRepo: metrics.NewRepository(redisdb),
			closers:     cleanup.Stage{"Redis-server": redisdb.CloseDbConnection},
		}, nil
	case config.StoreSQLite:
		sqlitedb, dberr := db.OpenSQLite(ctx, logger, cfg.SQLitePath)
		if dberr != nil {
			return stores{}, dberr
		}
		return stores{
			statusRepo: status.NewSQLiteRepository(sqlitedb),
			closers:    cleanup.Stage{"SQLite": sqlitedb.CloseDbConnection},
		}, nil
	}
	return stores{closers: cleanup.Stage{}}, nil
}
