// Package config loads runtime configuration for the filekeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: FILEKEEPER_SERVER_URL, FILEKEEPER_TIMEOUT (see parseEnv).
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Call (*Config).Validate before use; LoadConfig does not.
//
// Supported flags
//
//	-a string   base URL of the server, e.g. http://127.0.0.1:8000
//	-i int      request timeout (seconds)
//
// # JSON schema
//
// The timeout is a timex.Duration, so it can be a string like "30s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8000",
//	  "request_timeout": "30s"
//	}
package config
