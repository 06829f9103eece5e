package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// parseEnv overlays config with:
//
//	FILEKEEPER_SERVER_URL  base URL of the server
//	FILEKEEPER_TIMEOUT     duration ("45s") or whole seconds
//
// Blank variables are ignored; malformed values panic.
func parseEnv(config *Config) {
	if v := strings.TrimSpace(os.Getenv("FILEKEEPER_SERVER_URL")); v != "" {
		config.ServerURL = v
	}
	if v := strings.TrimSpace(os.Getenv("FILEKEEPER_TIMEOUT")); v != "" {
		config.RequestTimeout = mustSecondsOrDuration(v)
	}
}

func mustSecondsOrDuration(v string) time.Duration {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	return d
}
