package config

import (
	"github.com/spf13/pflag"
)

// AddFlags registers the server flags on fs. Flags carry no defaults of
// their own; only flags set explicitly on the command line override the
// file and environment layers (see ApplyFlags).
func AddFlags(fs *pflag.FlagSet) {
	fs.String("addr", "", "address and port to listen on (e.g. \":5000\")")
	fs.String("db", "", "path to the SQLite database file")
	fs.String("jwt-secret", "", "HMAC secret used to sign session tokens")
	fs.Duration("token-ttl", 0, "session token lifetime")
	fs.String("premium-dir", "", "directory holding premium PDF files")
	fs.String("web-dir", "", "directory holding the frontend index.html")
	fs.String("redis", "", "redis address for the catalog cache and activity events")
	fs.String("otlp", "", "OTLP gRPC collector endpoint")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
}

// ApplyFlags copies every flag that was set on the command line into c.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	strs := map[string]*string{
		"addr":        &c.ListenAddr,
		"db":          &c.DatabasePath,
		"jwt-secret":  &c.JWTSecret,
		"premium-dir": &c.PremiumDir,
		"web-dir":     &c.WebDir,
		"redis":       &c.RedisAddr,
		"otlp":        &c.OTLPEndpoint,
		"log-level":   &c.LogLevel,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if fs.Changed("token-ttl") {
		ttl, err := fs.GetDuration("token-ttl")
		if err != nil {
			return err
		}
		c.TokenTTL = ttl
	}
	return nil
}
