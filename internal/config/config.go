// loads up the .env files and runtime configuration used internally by Tabcast.

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Kinds of tab status store.
const (
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
	StoreNone   = "none"
)

// Config holds all runtime configuration for Tabcast.
type Config struct {
	Env     string
	Version string
	// gin listener
	SrvAddr    string
	SrvPort    int
	CORSOrigin string
	// redis-server
	RedisAddr         string
	RedisPort         int
	RedisPassword     string
	RedisDBNumber     int
	RedisTxMaxRetries int
	// tabs
	PollTimeout    time.Duration
	TabIdleTimeout time.Duration
	SweepInterval  time.Duration
	PollTimers     bool
	// persistence
	StatusStore     string
	SQLitePath      string
	MetricsInterval time.Duration
	// identification, empty disables it
	JWTSecret string
	LogLevel  string
}

// uses go package: godotenv to load up enviroment variables from path.
// Variables already set in the environment win over the file.
func LoadEnvFile(path string) error {
	return godotenv.Load(path)
}

// NewViper returns a viper instance with Tabcast defaults that reads
// every key from the environment variable of the same name in upper case.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("env", "DEV")
	v.SetDefault("version", "1.0.0")
	v.SetDefault("srv_addr", "0.0.0.0")
	v.SetDefault("srv_port", 8080)
	v.SetDefault("cors_origin", "*")
	v.SetDefault("redis_addr", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db_number", 0)
	v.SetDefault("redis_tx_max_retries", 3)
	v.SetDefault("poll_timeout", 30*time.Second)
	v.SetDefault("tab_idle_timeout", 2*time.Minute)
	v.SetDefault("sweep_interval", 10*time.Second)
	v.SetDefault("poll_timers", true)
	v.SetDefault("status_store", StoreNone)
	v.SetDefault("sqlite_path", "tabcast.db")
	v.SetDefault("metrics_interval", time.Minute)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("log_level", "info")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from v, which merges flag values, env vars and defaults.
func Load(v *viper.Viper) Config {
	return Config{
		Env:               v.GetString("env"),
		Version:           v.GetString("version"),
		SrvAddr:           v.GetString("srv_addr"),
		SrvPort:           v.GetInt("srv_port"),
		CORSOrigin:        v.GetString("cors_origin"),
		RedisAddr:         v.GetString("redis_addr"),
		RedisPort:         v.GetInt("redis_port"),
		RedisPassword:     v.GetString("redis_password"),
		RedisDBNumber:     v.GetInt("redis_db_number"),
		RedisTxMaxRetries: v.GetInt("redis_tx_max_retries"),
		PollTimeout:       v.GetDuration("poll_timeout"),
		TabIdleTimeout:    v.GetDuration("tab_idle_timeout"),
		SweepInterval:     v.GetDuration("sweep_interval"),
		PollTimers:        v.GetBool("poll_timers"),
		StatusStore:       strings.ToLower(v.GetString("status_store")),
		SQLitePath:        v.GetString("sqlite_path"),
		MetricsInterval:   v.GetDuration("metrics_interval"),
		JWTSecret:         v.GetString("jwt_secret"),
		LogLevel:          v.GetString("log_level"),
	}
}

// Validate rejects configurations Tabcast can't run with.
func (c Config) Validate() error {
	if c.SrvPort <= 0 || c.SrvPort > 65535 {
		return fmt.Errorf("SRV_PORT must be a valid port, got %d", c.SrvPort)
	}
	if c.PollTimeout <= 0 {
		return fmt.Errorf("POLL_TIMEOUT must be positive, got %s", c.PollTimeout)
	}
	if c.TabIdleTimeout <= 0 {
		return fmt.Errorf("TAB_IDLE_TIMEOUT must be positive, got %s", c.TabIdleTimeout)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("SWEEP_INTERVAL must be positive, got %s", c.SweepInterval)
	}
	switch c.StatusStore {
	case StoreRedis:
		if c.RedisAddr == "" || c.RedisPort <= 0 {
			return fmt.Errorf("REDIS_ADDR and REDIS_PORT are required with STATUS_STORE=%s", StoreRedis)
		}
		if c.MetricsInterval <= 0 {
			return fmt.Errorf("METRICS_INTERVAL must be positive, got %s", c.MetricsInterval)
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required with STATUS_STORE=%s", StoreSQLite)
		}
	case StoreNone:
	default:
		return fmt.Errorf("unknown STATUS_STORE %q", c.StatusStore)
	}
	return nil
}

// Default dotenv file for an environment, empty when there is none.
func EnvFile(env string) string {
	switch strings.ToUpper(env) {
	case "DEV":
		return "config/dev.env"
	case "TEST":
		return "config/test.env"
	}
	return ""
}

// Reports whether Tabcast runs on a developer machine.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.Env, "DEV")
}
