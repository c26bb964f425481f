// SQLite database used by Tabcast when redis isn't available.

package db

import (
	"Tabcast/pkg/log"
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteDB wraps a sql.DB connection to a migrated SQLite database.
type SQLiteDB struct {
	conn *sql.DB
}

// OpenSQLite opens the database at path and runs all pending migrations.
func OpenSQLite(ctx context.Context, logger log.Logger, path string) (*SQLiteDB, error) {
	conn, dberr := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if dberr != nil {
		return nil, fmt.Errorf("open sqlite: %w", dberr)
	}
	// a single writer avoids SQLITE_BUSY under concurrent status updates
	conn.SetMaxOpenConns(1)

	if dberr = conn.PingContext(ctx); dberr != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", dberr)
	}
	if dberr = migrate(ctx, conn); dberr != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migrate: %w", dberr)
	}
	logger.WithCtx(ctx).Info().Str("Path", path).Msg("SQLite database ready")
	return &SQLiteDB{conn: conn}, nil
}

func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrationFS)
	goose.SetLogger(goose.NopLogger())
	if dberr := goose.SetDialect("sqlite3"); dberr != nil {
		return dberr
	}
	return goose.UpContext(ctx, conn, "migrations")
}

// Conn returns the underlying *sql.DB.
func (db *SQLiteDB) Conn() *sql.DB {
	return db.conn
}

// Helper to close the SQLite connection, should be called before closing the server.
func (db *SQLiteDB) CloseDbConnection(ctx context.Context) error {
	return db.conn.Close()
}
