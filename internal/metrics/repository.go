// Metrics repository encapsulates the data access logic (interactions with the DB) related to Metrics CRUD in Tabcast.

package metrics

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/pkg/db"
	"Tabcast/pkg/log"
	"context"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

var metricsDbKey string = "tabcast:metrics"

type Repository interface {
	// Get Tabcast Metrics data
	GetMetrics(ctx context.Context, logger log.Logger) (entity.Metrics, error)
	// Set or Update Tabcast Metrics data
	SetOrUpdateMetrics(ctx context.Context, logger log.Logger, metrics *entity.Metrics) error
}

// repository struct of metrics Repository.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of metrics repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

func (r repository) GetMetrics(ctx context.Context, logger log.Logger) (entity.Metrics, error) {
	// check if metrics data is available in the db
	available, dberr := r.db.Client().Exists(ctx, metricsDbKey).Result()
	if dberr != nil && dberr != redis.Nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Exists() in metrics.GetMetrics")
		return entity.Metrics{}, errors.InternalServerError("")
	} else if available == 0 {
		// no metrics data is available
		return entity.Metrics{}, nil
	}
	var metrics entity.Metrics
	if dberr = r.db.Client().HGetAll(ctx, metricsDbKey).Scan(&metrics); dberr != nil {
		// Error during interacting with DB
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in metrics.GetMetrics")
		return entity.Metrics{}, errors.InternalServerError("")
	}
	return metrics, nil
}

// SetOrUpdateMetrics saves metrics and raises the stored peaks when they are exceeded.
// The peaks are read and written under WATCH, so concurrent publishers never lower them.
// On success metrics carries the peaks and timestamp that were saved.
func (r repository) SetOrUpdateMetrics(ctx context.Context, logger log.Logger, metrics *entity.Metrics) error {
	txf := func(tx *redis.Tx) error {
		peaks, dberr := tx.HMGet(ctx, metricsDbKey, "peak_sessions", "peak_tabs").Result()
		if dberr != nil && dberr != redis.Nil {
			return dberr
		}
		saved := *metrics
		saved.PeakSessions = max(metrics.ActiveSessions, peakAt(peaks, 0))
		saved.PeakTabs = max(metrics.ActiveTabs, peakAt(peaks, 1))
		saved.UpdatedAt = time.Now().Unix()

		// Operation is commited only if the watched keys remain unchanged
		_, dberr = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, metricsDbKey,
				"active_sessions", saved.ActiveSessions,
				"active_tabs", saved.ActiveTabs,
				"served_tabs", saved.ServedTabs,
				"queued_events", saved.QueuedEvents,
				"peak_sessions", saved.PeakSessions,
				"peak_tabs", saved.PeakTabs,
				"updated_at", saved.UpdatedAt,
			)
			return nil
		})
		if dberr == nil {
			*metrics = saved
		}
		return dberr
	}

	for i := 0; i < r.db.GetMaxRetries(); i++ {
		dberr := r.db.Client().Watch(ctx, txf, metricsDbKey)
		if dberr == nil {
			return nil
		} else if dberr == redis.TxFailedErr {
			// Optimistic lock lost. Retry.
			continue
		}
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Watch() in metrics.SetOrUpdateMetrics")
		return errors.InternalServerError("")
	}
	logger.WithCtx(ctx).Error().Int("Retries", r.db.GetMaxRetries()).Msg("SetOrUpdateMetrics reached maximum number of retries")
	return errors.InternalServerError("")
}

// peakAt reads the HMGET reply at i, missing or malformed values count as zero.
func peakAt(reply []interface{}, i int) int {
	if i >= len(reply) {
		return 0
	}
	raw, ok := reply[i].(string)
	if !ok {
		return 0
	}
	n, converr := strconv.Atoi(raw)
	if converr != nil {
		return 0
	}
	return n
}
