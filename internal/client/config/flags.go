package config

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/flagx"
)

// timeoutValue is a flag.Value accepting whole seconds ("30") or a
// duration ("1m30s").
type timeoutValue struct {
	d *time.Duration
}

func (v timeoutValue) String() string {
	if v.d == nil {
		return ""
	}
	return strconv.Itoa(int(v.d.Seconds()))
}

func (v timeoutValue) Set(s string) error {
	if n, err := strconv.Atoi(s); err == nil {
		*v.d = time.Duration(n) * time.Second
		return nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*v.d = d
	return nil
}

// parseFlags overlays config with command-line flags:
//
//	-a string   base URL of the server
//	-i value    request timeout, seconds or a duration
//
// Only these flags are parsed (see flagx.FilterArgs); anything else on the
// command line is left alone. Malformed values panic.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "base URL of the server")
	fs.Var(timeoutValue{d: &cfg.RequestTimeout}, "i", "request timeout (seconds or duration)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
