package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for key := range envKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	t.Setenv(PathEnvVar, "")
	os.Unsetenv(PathEnvVar)
	t.Chdir(t.TempDir())
}

func TestLoadRequiresSecret(t *testing.T) {
	clearEnv(t)

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, ":3001", cfg.ListenAddr())
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.True(t, cfg.AllowAnyOrigin())
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "/ws", cfg.Live.Path)
	assert.Equal(t, 30*time.Second, cfg.Live.HeartbeatInterval)
	assert.Equal(t, 64, cfg.Live.SendBuffer)
	assert.Equal(t, 0, cfg.Retention.AlertDays)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "8088")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("HEARTBEAT_INTERVAL", "5s")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("ALERT_PRODUCER_TOKEN", "worker-key")
	t.Setenv("ALERT_RETENTION_DAYS", "14")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8088", cfg.ListenAddr())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.Live.HeartbeatInterval)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.False(t, cfg.AllowAnyOrigin())
	assert.Equal(t, "worker-key", cfg.Auth.ProducerToken)
	assert.Equal(t, 14, cfg.Retention.AlertDays)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  cors_origins:
    - http://dash.test
auth:
  jwt_secret: from-file
store:
  driver: sqlite
  sqlite_path: /tmp/cams.db
live:
  path: /live
`), 0o600))
	t.Setenv("PORT", "9100")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port, "env wins over file")
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, []string{"http://dash.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/cams.db", cfg.Store.SQLitePath)
	assert.Equal(t, "/live", cfg.Live.Path)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		c := defaults()
		c.Auth.JWTSecret = "s"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"unknown driver", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"postgres without dsn", func(c *Config) { c.Store.Driver = DriverPostgres }, "DATABASE_URL"},
		{"sqlite without path", func(c *Config) { c.Store.Driver = DriverSQLite; c.Store.SQLitePath = "" }, "SQLITE_PATH"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
		{"relative live path", func(c *Config) { c.Live.Path = "ws" }, "must start with /"},
		{"negative retention", func(c *Config) { c.Retention.AlertDays = -1 }, "must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	ok := base()
	assert.NoError(t, ok.Validate())
}
