// Package config handles configuration for the server component,
// including defaults, a JSON or YAML file overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the gophvote server.
//
// Fields:
//   - EndpointAddrGRPC / EndpointAddrHTTP: bind addresses for the gRPC and HTTP endpoints.
//   - DatabaseDSN: postgres://... selects PostgreSQL (pgx), sqlite://path or :memory: selects SQLite.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use test defaults in prod.
//   - AccessTokenValidityDuration: access token lifetime.
//   - RedisURL / CacheTTL: proposal cache; an empty URL disables caching.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: export storage; an empty endpoint disables exports.
//   - LogBackend / LogLevel: "slog" or "zap", and debug|info|warn|error.
//   - RestrictUpdatesToOwner: reject proposal updates from anyone but the owner.
type Config struct {
	EndpointAddrGRPC            string
	EndpointAddrHTTP            string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	RedisURL                    string
	CacheTTL                    time.Duration
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
	LogBackend                  string
	LogLevel                    string
	RestrictUpdatesToOwner      bool
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.EndpointAddrHTTP = ":8080"
	c.DatabaseDSN = "sqlite://gophvote.db"
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RedisURL = ""
	c.CacheTTL = 5 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "exports"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.LogBackend = "slog"
	c.LogLevel = "info"
	c.RestrictUpdatesToOwner = false
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
