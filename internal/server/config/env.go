package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// dotEnvFile is loaded before the process environment is read. Variables
// already present in the environment win over the file.
var dotEnvFile = ".env"

// parseEnv overlays config with environment variables:
//
//	APP_PORT           port only, becomes ":<port>"
//	LISTEN_ADDR        full bind address, wins over APP_PORT
//	DATABASE_DSN       database DSN
//	SECRET_KEY         JWT HMAC secret
//	ACCESS_TOKEN_TTL   duration ("10m") or whole minutes
//	REFRESH_TOKEN_TTL  duration ("24h") or whole minutes
//	STORAGE_ROOT       upload root directory
//	MAX_FILE_SIZE      byte size ("10MiB")
//	USER_QUOTA         byte size ("1GiB")
//	RATE_LIMIT         requests per minute
//	REDIS_URL          redis://host:port/db
//	SERIALIZE_UPLOADS  bool
//	LOG_LEVEL          debug|info|warn|error
//
// Malformed values panic, matching the JSON and flag layers.
func parseEnv(config *Config) {
	if err := godotenv.Load(dotEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	if v, ok := lookup("APP_PORT"); ok {
		config.ListenAddr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := lookup("LISTEN_ADDR"); ok {
		config.ListenAddr = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok {
		config.DatabaseDSN = v
	}
	if v, ok := lookup("SECRET_KEY"); ok {
		config.SecretKey = v
	}
	if v, ok := lookup("ACCESS_TOKEN_TTL"); ok {
		config.AccessTokenValidityDuration = mustMinutesOrDuration(v)
	}
	if v, ok := lookup("REFRESH_TOKEN_TTL"); ok {
		config.RefreshTokenValidityDuration = mustMinutesOrDuration(v)
	}
	if v, ok := lookup("STORAGE_ROOT"); ok {
		config.StorageRoot = v
	}
	if v, ok := lookup("MAX_FILE_SIZE"); ok {
		if err := config.MaxFileSize.Set(v); err != nil {
			panic(err)
		}
	}
	if v, ok := lookup("USER_QUOTA"); ok {
		if err := config.UserQuota.Set(v); err != nil {
			panic(err)
		}
	}
	if v, ok := lookup("RATE_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.RateLimitPerMinute = n
	}
	if v, ok := lookup("REDIS_URL"); ok {
		config.RedisURL = v
	}
	if v, ok := lookup("SERIALIZE_UPLOADS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			panic(err)
		}
		config.SerializeUploads = b
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		config.LogLevel = v
	}
}

// lookup treats set-but-blank variables as unset.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func mustMinutesOrDuration(v string) time.Duration {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Minute
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}
