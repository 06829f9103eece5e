// Package config handles configuration for the server component:
// defaults, JSON overlay, environment (including an optional .env file),
// and command-line flags, applied in that order.
package config

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

// ChunkSize is the read size of the upload pipeline.
const ChunkSize = 64 * 1024

// Config holds runtime settings for the filekeeper server.
//
// Fields:
//   - ListenAddr: bind address of the HTTP API.
//   - DatabaseDSN: postgres:// URL (pgx) or a SQLite file name.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Override in prod.
//   - AccessTokenValidityDuration / RefreshTokenValidityDuration: token lifetimes.
//   - StorageRoot: directory holding one sub-directory per user.
//   - MaxFileSize / UserQuota: per-file and per-user byte limits.
//   - RateLimitPerMinute / RedisURL: file route rate limit; Redis is used
//     as the counter store when RedisURL is set.
//   - SerializeUploads: run uploads of one user one at a time so the quota
//     cannot be overshot by concurrent requests.
type Config struct {
	ListenAddr                   string
	DatabaseDSN                  string
	SecretKey                    string
	AccessTokenValidityDuration  time.Duration
	RefreshTokenValidityDuration time.Duration
	StorageRoot                  string
	MaxFileSize                  flagx.ByteSize
	UserQuota                    flagx.ByteSize
	RateLimitPerMinute           int
	RedisURL                     string
	SerializeUploads             bool
	LogLevel                     string
}

// LoadDefaults populates Config with development defaults.
// NOTE: the secret is insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8000"
	c.DatabaseDSN = "users.db"
	c.SecretKey = "supersecretkey123"
	c.AccessTokenValidityDuration = 10 * time.Minute
	c.RefreshTokenValidityDuration = 24 * time.Hour
	c.StorageRoot = "uploads"
	c.MaxFileSize = 10 * flagx.MiB
	c.UserQuota = 1 * flagx.GiB
	c.RateLimitPerMinute = 10
	c.RedisURL = ""
	c.SerializeUploads = true
	c.LogLevel = "info"
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.ListenAddr == "" {
		errs = append(errs, errors.New("listen address is empty"))
	}
	if c.DatabaseDSN == "" {
		errs = append(errs, errors.New("database DSN is empty"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("secret key is empty"))
	}
	if c.AccessTokenValidityDuration <= 0 || c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("token validity must be positive"))
	}
	if c.StorageRoot == "" {
		errs = append(errs, errors.New("storage root is empty"))
	}
	if c.MaxFileSize <= 0 || c.UserQuota <= 0 {
		errs = append(errs, errors.New("size limits must be positive"))
	}
	if c.RateLimitPerMinute <= 0 {
		errs = append(errs, errors.New("rate limit must be positive"))
	}
	return errors.Join(errs...)
}

// LoadConfig builds a Config from defaults, then the JSON file, then the
// environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
