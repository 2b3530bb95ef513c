// Package config holds the runtime settings of the bookshelf server.
//
// Values are layered: built-in defaults, then an optional TOML file, then
// environment variables, then command-line flags.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime settings for the bookshelf server.
type Config struct {
	ListenAddr      string        `toml:"listen_addr"`
	DatabasePath    string        `toml:"database_path"`
	JWTSecret       string        `toml:"jwt_secret"`
	TokenTTL        time.Duration `toml:"token_ttl"`
	PremiumDir      string        `toml:"premium_dir"`
	WebDir          string        `toml:"web_dir"`
	RedisAddr       string        `toml:"redis_addr"`
	CatalogCacheTTL time.Duration `toml:"catalog_cache_ttl"`
	OTLPEndpoint    string        `toml:"otlp_endpoint"`
	LogLevel        string        `toml:"log_level"`
	AuthRateLimit   float64       `toml:"auth_rate_limit"`
	AuthRateBurst   int           `toml:"auth_rate_burst"`
}

// LoadDefaults populates Config with development defaults.
// JWTSecret is deliberately left empty so a server never starts with a
// well-known signing key.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":5000"
	c.DatabasePath = "./bookshelf.db"
	c.TokenTTL = 24 * time.Hour
	c.PremiumDir = "./pdfs"
	c.WebDir = "./web"
	c.CatalogCacheTTL = 10 * time.Minute
	c.LogLevel = "info"
	c.AuthRateLimit = 5
	c.AuthRateBurst = 10
}

// Default returns a Config with defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	return cfg
}

// Load builds a Config from defaults, the TOML file at path (skipped when
// path is empty) and the process environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv(os.Getenv)
	return cfg, nil
}

// Decode overlays TOML from r onto c. Keys absent from the document keep
// their current values.
func (c *Config) Decode(r io.Reader) error {
	if _, err := toml.NewDecoder(r).Decode(c); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := c.Decode(f); err != nil {
		return fmt.Errorf("reading config from %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("PORT"); v != "" {
		c.ListenAddr = ":" + strings.TrimPrefix(v, ":")
	}
	if v := getenv("DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := getenv("PREMIUM_DIR"); v != "" {
		c.PremiumDir = v
	}
	if v := getenv("REDIS_CONNSTRING"); v != "" {
		c.RedisAddr = v
	}
	if v := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		c.OTLPEndpoint = v
	}
	if v := getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate reports the first setting that would prevent the server from
// running correctly.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("jwt secret must be set (jwt_secret, JWT_SECRET or --jwt-secret)")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	if c.DatabasePath == "" {
		return errors.New("database path must be set")
	}
	if c.AuthRateLimit <= 0 || c.AuthRateBurst <= 0 {
		return errors.New("auth rate limit and burst must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
