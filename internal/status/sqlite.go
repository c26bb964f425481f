// SQLite implementation of the status Repository in Tabcast.

package status

import (
	"Tabcast/internal/entity"
	"Tabcast/internal/errors"
	"Tabcast/pkg/db"
	"Tabcast/pkg/log"
	"context"
)

type sqliteRepository struct {
	db *db.SQLiteDB
}

// Returns a new instance of the sqlite status repository.
func NewSQLiteRepository(dbwrp *db.SQLiteDB) Repository {
	return sqliteRepository{db: dbwrp}
}

func (r sqliteRepository) SaveTabStatus(ctx context.Context, logger log.Logger, status entity.TabStatus) error {
	_, dberr := r.db.Conn().ExecContext(ctx, `
		INSERT INTO tab_status (session_id, tab_id, user_id, queue_depth, served, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, tab_id) DO UPDATE SET
			user_id = excluded.user_id,
			queue_depth = excluded.queue_depth,
			served = excluded.served,
			updated_at = excluded.updated_at`,
		status.SessionID, int64(status.TabID), status.UserID, status.QueueDepth, status.Served, status.Timestamp)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of INSERT in status.SaveTabStatus")
		return errors.InternalServerError("")
	}
	return nil
}

func (r sqliteRepository) DeleteTabStatus(ctx context.Context, logger log.Logger, sessionID string, tabID uint64) error {
	_, dberr := r.db.Conn().ExecContext(ctx,
		`DELETE FROM tab_status WHERE session_id = ? AND tab_id = ?`, sessionID, int64(tabID))
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of DELETE in status.DeleteTabStatus")
		return errors.InternalServerError("")
	}
	return nil
}

func (r sqliteRepository) ListTabStatus(ctx context.Context, logger log.Logger, sessionID string) ([]entity.TabStatus, error) {
	rows, dberr := r.db.Conn().QueryContext(ctx, `
		SELECT session_id, tab_id, user_id, queue_depth, served, updated_at
		FROM tab_status WHERE session_id = ? ORDER BY tab_id`, sessionID)
	if dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured during execution of SELECT in status.ListTabStatus")
		return nil, errors.InternalServerError("")
	}
	defer rows.Close()

	statuses := []entity.TabStatus{}
	for rows.Next() {
		var status entity.TabStatus
		var tabID int64
		if scnerr := rows.Scan(&status.SessionID, &tabID, &status.UserID, &status.QueueDepth, &status.Served, &status.Timestamp); scnerr != nil {
			logger.WithCtx(ctx).Error().Err(scnerr).Msg("Error occured during execution of rows.Scan() in status.ListTabStatus")
			return nil, errors.InternalServerError("")
		}
		status.TabID = uint64(tabID)
		statuses = append(statuses, status)
	}
	if dberr = rows.Err(); dberr != nil {
		logger.WithCtx(ctx).Error().Err(dberr).Msg("Error occured while iterating rows in status.ListTabStatus")
		return nil, errors.InternalServerError("")
	}
	return statuses, nil
}
