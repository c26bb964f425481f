// Database connector tests in Tabcast.

package db

import (
	"Tabcast/pkg/log"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Global instance of log.Logger to be used during db testing.
var logger log.Logger

// Global context
var ctx context.Context = context.Background()

func TestMain(m *testing.M) {
	logger = log.Nop()
	os.Exit(m.Run())
}

// Redis options from the environment, test db 1 unless told otherwise.
func redisOptionsFromEnv() RedisOptions {
	port, _ := strconv.Atoi(os.Getenv("REDIS_PORT"))
	if port == 0 {
		port = 6379
	}
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost"
	}
	return RedisOptions{Addr: addr, Port: port, Password: os.Getenv("REDIS_PASSWORD"), DB: 1, TxMaxRetries: 3}
}

func TestNewDbConnectionRejectsMissingAddress(t *testing.T) {
	_, dberr := NewDbConnection(ctx, logger, RedisOptions{Port: 6379})
	assert.Error(t, dberr)
	_, dberr = NewDbConnection(ctx, logger, RedisOptions{Addr: "localhost"})
	assert.Error(t, dberr)

	client, dberr := NewDbConnection(ctx, logger, RedisOptions{Addr: "localhost", Port: 6379})
	require.NoError(t, dberr)
	assert.Equal(t, 1, client.GetMaxRetries())
	assert.Equal(t, "localhost:6379", client.Client().Options().Addr)
	assert.NoError(t, client.CloseDbConnection(ctx))
}

func TestDbConnectionLifeCycle(t *testing.T) {
	client, dberr := NewDbConnection(ctx, logger, redisOptionsFromEnv())
	require.NoError(t, dberr)
	if client.CheckDbConnection(ctx, logger) != nil {
		t.Skip("redis-server is not reachable")
	}
	client.CleanTestDbData(ctx, logger)
	// Close connection
	assert.NoError(t, client.CloseDbConnection(ctx))
	// Check if connection is still active
	assert.Error(t, client.CheckDbConnection(ctx, logger))
}

func TestOpenSQLiteMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tabcast.db")
	sqlite, dberr := OpenSQLite(ctx, logger, path)
	require.NoError(t, dberr)

	var count int
	require.NoError(t, sqlite.Conn().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tab_status'`).Scan(&count))
	assert.Equal(t, 1, count)
	require.NoError(t, sqlite.CloseDbConnection(ctx))

	// reopening an up to date database is a no-op
	sqlite, dberr = OpenSQLite(ctx, logger, path)
	require.NoError(t, dberr)
	assert.NoError(t, sqlite.CloseDbConnection(ctx))
}
