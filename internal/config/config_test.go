package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Load(NewViper())
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.PollTimeout)
	assert.Equal(t, 2*time.Minute, cfg.TabIdleTimeout)
	assert.True(t, cfg.PollTimers)
	assert.Equal(t, StoreNone, cfg.StatusStore)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("POLL_TIMEOUT", "45s")
	t.Setenv("SRV_PORT", "9000")
	t.Setenv("STATUS_STORE", "SQLite")
	t.Setenv("POLL_TIMERS", "false")

	cfg := Load(NewViper())
	assert.Equal(t, 45*time.Second, cfg.PollTimeout)
	assert.Equal(t, 9000, cfg.SrvPort)
	assert.Equal(t, StoreSQLite, cfg.StatusStore)
	assert.False(t, cfg.PollTimers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TAB_IDLE_TIMEOUT=7m\n"), 0o600))
	t.Setenv("TAB_IDLE_TIMEOUT", "")
	os.Unsetenv("TAB_IDLE_TIMEOUT")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, 7*time.Minute, Load(NewViper()).TabIdleTimeout)
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
}

func TestValidate(t *testing.T) {
	valid := Load(NewViper())

	cases := map[string]func(c *Config){
		"zero poll timeout":  func(c *Config) { c.PollTimeout = 0 },
		"negative idle":      func(c *Config) { c.TabIdleTimeout = -time.Second },
		"zero sweep":         func(c *Config) { c.SweepInterval = 0 },
		"bad port":           func(c *Config) { c.SrvPort = 70000 },
		"unknown store":      func(c *Config) { c.StatusStore = "mongo" },
		"redis without addr": func(c *Config) { c.StatusStore = StoreRedis; c.RedisAddr = "" },
		"sqlite without path": func(c *Config) {
			c.StatusStore = StoreSQLite
			c.SQLitePath = ""
		},
	}
	for name, mutate := range cases {
		cfg := valid
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestEnvFile(t *testing.T) {
	assert.Equal(t, "config/dev.env", EnvFile("dev"))
	assert.Equal(t, "config/test.env", EnvFile("TEST"))
	assert.Empty(t, EnvFile("PROD"))
}
