// Status repository encapsulates the data access logic (interactions with the DB) related to tab status in Tabcast.

package status

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/pkg/db"
	"Tabcast/pkg/log"
	"context"
	"sort"
	"strconv"

	"github.com/go-redis/redis/v8"
)

type Repository interface {
	// Saves the latest status of a tab, replacing the previous one.
	SaveTabStatus(ctx context.Context, logger log.Logger, status entity.TabStatus) error
	// Removes a closed tab.
	DeleteTabStatus(ctx context.Context, logger log.Logger, sessionID string, tabID uint64) error
	// Lists the saved status of every tab of a session ordered by tab id.
	ListTabStatus(ctx context.Context, logger log.Logger, sessionID string) ([]entity.TabStatus, error)
}

// repository struct of status Repository backed by redis.
// Object of this will be passed around from main to internal.
// Helps to access the repository layer interface and call methods.
type repository struct {
	db *db.RedisDB
}

// Returns a new instance of the redis status repository for other packages to access its interface.
func NewRepository(dbwrp *db.RedisDB) Repository {
	return repository{db: dbwrp}
}

// Saved in DB as a hash per tab.
func tabKey(sessionID string, tabID uint64) string {
	return "tabcast:tab:" + sessionID + ":" + strconv.FormatUint(tabID, 10)
}

// Saved in DB as a set of tab keys per session.
func sessionKey(sessionID string) string {
	return "tabcast:session-tabs:" + sessionID
}

func (r repository) SaveTabStatus(ctx context.Context, logger log.Logger, status entity.TabStatus) error {
	key := tabKey(status.SessionID, status.TabID)
	_, dberr := r.db.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"session_id", status.SessionID,
			"tab_id", status.TabID,
			"user_id", status.UserID,
			"queue_depth", status.QueueDepth,
			"timestamp", status.Timestamp,
			"served", status.Served,
		)
		pipe.SAdd(ctx, sessionKey(status.SessionID), key)
		return nil
	})
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HSet() in status.SaveTabStatus")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) DeleteTabStatus(ctx context.Context, logger log.Logger, sessionID string, tabID uint64) error {
	key := tabKey(sessionID, tabID)
	_, dberr := r.db.Client().TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.SRem(ctx, sessionKey(sessionID), key)
		return nil
	})
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.Del() in status.DeleteTabStatus")
		return errors.InternalServerError("")
	}
	return nil
}

func (r repository) ListTabStatus(ctx context.Context, logger log.Logger, sessionID string) ([]entity.TabStatus, error) {
	keys, dberr := r.db.Client().SMembers(ctx, sessionKey(sessionID)).Result()
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.SMembers() in status.ListTabStatus")
		return nil, errors.InternalServerError("")
	}

	cmds := make([]*redis.StringStringMapCmd, 0, len(keys))
	_, dberr = r.db.Client().Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			cmds = append(cmds, pipe.HGetAll(ctx, key))
		}
		return nil
	})
	if dberr != nil && dberr != redis.Nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of redis.HGetAll() in status.ListTabStatus")
		return nil, errors.InternalServerError("")
	}

	statuses := make([]entity.TabStatus, 0, len(cmds))
	for _, cmd := range cmds {
		if len(cmd.Val()) == 0 {
			// expired or removed in between
			continue
		}
		var status entity.TabStatus
		if scnerr := cmd.Scan(&status); scnerr != nil {
			logger.WithCtx(ctx).Error().Err(scnerr).Msg("Error occured during execution of redis.Scan() in status.ListTabStatus")
			return nil, errors.InternalServerError("")
		}
		statuses = append(statuses, status)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i].TabID < statuses[j].TabID })
	return statuses, nil
}
