// Package config loads process configuration in three layers: built-in
// defaults, an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const PathEnvVar = "CONFIG_PATH"

var DefaultPaths = []string{"config.yaml", "config.yml"}

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Auth      AuthConfig      `koanf:"auth"`
	Store     StoreConfig     `koanf:"store"`
	Live      LiveConfig      `koanf:"live"`
	Retention RetentionConfig `koanf:"retention"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
	// ProducerToken, when set, must accompany alert submissions in the
	// X-Producer-Token header.
	ProducerToken string `koanf:"producer_token"`
}

type StoreConfig struct {
	Driver      string `koanf:"driver"`
	DatabaseURL string `koanf:"database_url"`
	SQLitePath  string `koanf:"sqlite_path"`
}

type LiveConfig struct {
	Path              string        `koanf:"path"`
	HeartbeatInterval time.Duration `koanf:"heartbeat_interval"`
	SendBuffer        int           `koanf:"send_buffer"`
	WriteWait         time.Duration `koanf:"write_wait"`
	MaxMessageSize    int64         `koanf:"max_message_size"`
}

type RetentionConfig struct {
	// AlertDays of 0 keeps alerts forever.
	AlertDays int           `koanf:"alert_days"`
	Interval  time.Duration `koanf:"interval"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:              "",
			Port:              3001,
			CORSOrigins:       []string{"*"},
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Auth: AuthConfig{
			TokenTTL: 7 * 24 * time.Hour,
		},
		Store: StoreConfig{
			Driver:     DriverMemory,
			SQLitePath: "camera-backend.db",
		},
		Live: LiveConfig{
			Path:              "/ws",
			HeartbeatInterval: 30 * time.Second,
			SendBuffer:        64,
			WriteWait:         10 * time.Second,
			MaxMessageSize:    64 * 1024,
		},
		Retention: RetentionConfig{
			AlertDays: 0,
			Interval:  24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the configuration. path overrides CONFIG_PATH and the
// default search paths; a missing explicit path is an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	} else if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitList(k, "server.cors_origins"); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var envKeys = map[string]string{
	"PORT":                 "server.port",
	"HOST":                 "server.host",
	"CORS_ORIGINS":         "server.cors_origins",
	"JWT_SECRET":           "auth.jwt_secret",
	"TOKEN_TTL":            "auth.token_ttl",
	"ALERT_PRODUCER_TOKEN": "auth.producer_token",
	"STORE_DRIVER":         "store.driver",
	"DATABASE_URL":         "store.database_url",
	"SQLITE_PATH":          "store.sqlite_path",
	"WS_PATH":              "live.path",
	"HEARTBEAT_INTERVAL":   "live.heartbeat_interval",
	"WS_SEND_BUFFER":       "live.send_buffer",
	"ALERT_RETENTION_DAYS": "retention.alert_days",
	"RETENTION_INTERVAL":   "retention.interval",
	"LOG_LEVEL":            "logging.level",
	"LOG_FORMAT":           "logging.format",
}

// envKey maps a recognised, non-empty environment variable to its config
// path. Everything else is skipped.
func envKey(key, value string) (string, any) {
	if value == "" {
		return "", nil
	}
	return envKeys[key], value
}

// splitList turns a comma-separated env value into a list.
func splitList(k *koanf.Koanf, path string) error {
	raw, ok := k.Get(path).(string)
	if !ok {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if err := k.Set(path, out); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET (auth.jwt_secret) is required"))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	if !strings.HasPrefix(c.Live.Path, "/") {
		errs = append(errs, fmt.Errorf("live.path %q must start with /", c.Live.Path))
	}
	if c.Retention.AlertDays < 0 {
		errs = append(errs, errors.New("retention.alert_days must not be negative"))
	}
	if c.Retention.AlertDays > 0 && c.Retention.Interval <= 0 {
		errs = append(errs, errors.New("retention.interval must be positive when retention is enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// AllowAnyOrigin reports whether CORS and websocket origin checks are open.
func (c *Config) AllowAnyOrigin() bool {
	for _, o := range c.Server.CORSOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}
