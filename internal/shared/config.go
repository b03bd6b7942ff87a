package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Session  SessionConfig  `toml:"session"`
	Auth     AuthConfig     `toml:"auth"`
	Yard     YardConfig     `toml:"yard"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	DSN          string `toml:"dsn"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	ReadTimeout    Duration `toml:"read_timeout"`
	WriteTimeout   Duration `toml:"write_timeout"`
	RequestTimeout Duration `toml:"request_timeout"`
	LoginRateLimit int      `toml:"login_rate_limit"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// SessionConfig selects the session backend and cookie attributes.
type SessionConfig struct {
	Backend       string   `toml:"backend"`
	TTL           Duration `toml:"ttl"`
	CookieName    string   `toml:"cookie_name"`
	CookieSecure  bool     `toml:"cookie_secure"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	KeyPrefix     string   `toml:"key_prefix"`
}

// AuthConfig contains credential hashing and login throttling parameters.
type AuthConfig struct {
	Hasher        string   `toml:"hasher"`
	Argon2Memory  uint32   `toml:"argon2_memory"`
	Argon2Time    uint32   `toml:"argon2_time"`
	Argon2Threads uint8    `toml:"argon2_threads"`
	BcryptCost    int      `toml:"bcrypt_cost"`
	LoginBurst    int      `toml:"login_burst"`
	LoginInterval Duration `toml:"login_interval"`
}

// YardConfig describes the placement grid.
type YardConfig struct {
	Rows           int  `toml:"rows"`
	Cols           int  `toml:"cols"`
	EnforceBounds  bool `toml:"enforce_bounds"`
	ExclusiveSlots bool `toml:"exclusive_slots"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Duration wraps [time.Duration] so it can be written as "12h" in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Addr returns the host:port the HTTP server listens on.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML and writes it to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	if config == nil {
		return fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// LoadEnv loads variables from the given .env files into the process environment.
//
// Missing files are skipped; variables already set in the environment win.
func LoadEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides config values with YARD_* environment variables.
func (c *Config) ApplyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	str("YARD_DATABASE_DRIVER", &c.Database.Driver)
	str("YARD_DATABASE_DSN", &c.Database.DSN)
	str("YARD_SERVER_HOST", &c.Server.Host)
	str("YARD_SESSION_BACKEND", &c.Session.Backend)
	str("YARD_REDIS_ADDR", &c.Session.RedisAddr)
	str("YARD_REDIS_PASSWORD", &c.Session.RedisPassword)
	str("YARD_LOG_LEVEL", &c.Log.Level)

	if v, ok := os.LookupEnv("YARD_SERVER_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: YARD_SERVER_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}

	if v, ok := os.LookupEnv("YARD_SESSION_TTL"); ok && v != "" {
		if err := c.Session.TTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%w: YARD_SESSION_TTL: %v", ErrInvalidConfig, err)
		}
	}

	return nil
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("%w: database.dsn is empty", ErrInvalidConfig)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}

	switch c.Session.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("%w: session.backend %q", ErrInvalidConfig, c.Session.Backend)
	}

	if c.Session.TTL.Duration <= 0 {
		return fmt.Errorf("%w: session.ttl must be positive", ErrInvalidConfig)
	}

	if c.Session.CookieName == "" {
		return fmt.Errorf("%w: session.cookie_name is empty", ErrInvalidConfig)
	}

	switch c.Auth.Hasher {
	case "argon2id", "bcrypt":
	default:
		return fmt.Errorf("%w: auth.hasher %q", ErrInvalidConfig, c.Auth.Hasher)
	}

	if c.Yard.Rows <= 0 || c.Yard.Cols <= 0 {
		return fmt.Errorf("%w: yard grid must have positive rows and cols", ErrInvalidConfig)
	}

	return nil
}
