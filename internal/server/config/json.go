package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
	"github.com/dmitrijs2005/filekeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "10m" or integer nanoseconds, sizes accept "10MiB" or bytes.
// Absent keys leave the current value untouched.
type JsonConfig struct {
	ListenAddr                   string         `json:"listen_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	StorageRoot                  string         `json:"storage_root"`
	MaxFileSize                  flagx.ByteSize `json:"max_file_size"`
	UserQuota                    flagx.ByteSize `json:"user_quota"`
	RateLimitPerMinute           int            `json:"rate_limit_per_minute"`
	RedisURL                     string         `json:"redis_url"`
	SerializeUploads             *bool          `json:"serialize_uploads"`
	LogLevel                     string         `json:"log_level"`
}

// parseJson overlays config with the file named by -c/-config. Nothing
// happens when the flag is absent. Read or decode failures panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.StorageRoot, c.StorageRoot)
	setString(&config.RedisURL, c.RedisURL)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration != 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.MaxFileSize != 0 {
		config.MaxFileSize = c.MaxFileSize
	}
	if c.UserQuota != 0 {
		config.UserQuota = c.UserQuota
	}
	if c.RateLimitPerMinute != 0 {
		config.RateLimitPerMinute = c.RateLimitPerMinute
	}
	if c.SerializeUploads != nil {
		config.SerializeUploads = *c.SerializeUploads
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
