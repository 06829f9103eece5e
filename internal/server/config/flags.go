package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-f string   storage root directory
//	-m size     max size of one file (e.g. "10MiB")
//	-q size     per-user quota (e.g. "1GiB")
//	-l int      rate limit, requests per minute
//	-x string   redis URL for the rate limiter
//	-k bool     serialize uploads per user (use -k=false to disable)
//	-v string   log level
//
// os.Args is filtered with flagx.FilterArgs first so that flags owned by
// other components (-c, test flags) do not break parsing.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-r", "-f", "-m", "-q", "-l", "-x", "-k", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")
	refreshTokenValidityDuration := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh_token_validity_duration (in minutes)")

	fs.StringVar(&config.StorageRoot, "f", config.StorageRoot, "storage root directory")
	fs.Var(&config.MaxFileSize, "m", "max file size")
	fs.Var(&config.UserQuota, "q", "per-user quota")
	fs.IntVar(&config.RateLimitPerMinute, "l", config.RateLimitPerMinute, "rate limit (requests per minute)")
	fs.StringVar(&config.RedisURL, "x", config.RedisURL, "redis URL for rate limiting")
	fs.BoolVar(&config.SerializeUploads, "k", config.SerializeUploads, "serialize uploads per user")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// Minutes are only applied when given, so sub-minute values from JSON or
	// the environment survive.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshTokenValidityDuration) * time.Minute
		}
	})
}
