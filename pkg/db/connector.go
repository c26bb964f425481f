// Initialization of Redis client to be used internally in Tabcast.

package db

import (
	"Tabcast/pkg/log"
	"context"
	"errors"
	"strconv"

	"github.com/go-redis/redis/v8"
)

// RedisDB represents a redis client connection to be used internally in Tabcast.
type RedisDB struct {
	client       *redis.Client
	txMaxRetries int
}

// RedisOptions holds what's needed to reach the redis-server.
type RedisOptions struct {
	Addr         string
	Port         int
	Password     string
	DB           int
	TxMaxRetries int
}

// Client returns the redis client wrapped by RedisDB.
func (db *RedisDB) Client() *redis.Client {
	return db.client
}

// GetMaxRetries returns the number of allowed retries in a watched redis transaction
func (db *RedisDB) GetMaxRetries() int {
	return db.txMaxRetries
}

// Returns a new Redis DB connection wrapped up by RedisDB struct.
// The connection is lazy, use CheckDbConnection to find out if the server answers.
func NewDbConnection(ctx context.Context, logger log.Logger, opts RedisOptions) (*RedisDB, error) {
	if opts.Addr == "" || opts.Port <= 0 {
		logger.WithCtx(ctx).Error().Str("Addr", opts.Addr).Int("Port", opts.Port).Msg("Improper redis address")
		return nil, errors.New("improper redis address")
	}
	if opts.TxMaxRetries <= 0 {
		opts.TxMaxRetries = 1
	}
	// Initializing a connection to Redis-server
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr + ":" + strconv.Itoa(opts.Port),
		Password: opts.Password,
		DB:       opts.DB,
	})
	return &RedisDB{client: client, txMaxRetries: opts.TxMaxRetries}, nil
}

// Helper to check connection status of redis client to redis-server.
// Equivalent to a PING request on redis-server, returns PONG on success.
func (db *RedisDB) CheckDbConnection(ctx context.Context, logger log.Logger) error {
	logger.WithCtx(ctx).Info().Msg("Checking DB Connection . . .")
	// Pinging the Redis-server to check connection status
	cnterr := db.Client().Ping(ctx).Err()
	if cnterr != nil {
		// Most likely, DB connection failure
		logger.WithCtx(ctx).Error().Err(cnterr).Msg("Redis client couldn't PING the redis-server.")
		return cnterr
	}
	// Connection successful
	logger.WithCtx(ctx).Info().Msg("Connection to DB Successful")
	return nil
}

// Helper to clean up test db after finishing Tabcast tests.
func (db *RedisDB) CleanTestDbData(ctx context.Context, logger log.Logger) {
	if db.Client().Options().DB == 1 {
		dberr := db.Client().FlushDB(ctx).Err()
		if dberr != nil {
			// Error during flushing test db
			logger.Error().Err(dberr).Msg("Error occured during the execution of FlushDB() in db.CleanTestDbData")
		}
	}
}

// Helper to close the RedisDB client, should be called before closing the server.
func (db *RedisDB) CloseDbConnection(ctx context.Context) error {
	return db.Client().Close()
}
