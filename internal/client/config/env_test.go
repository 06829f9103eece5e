package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseEnv(t *testing.T) {
	t.Setenv("FILEKEEPER_SERVER_URL", "https://files.internal")
	t.Setenv("FILEKEEPER_TIMEOUT", "45")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "https://files.internal", cfg.ServerURL)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)

	t.Setenv("FILEKEEPER_TIMEOUT", "1m30s")
	parseEnv(cfg)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
}

func Test_parseEnv_BlankIgnored(t *testing.T) {
	t.Setenv("FILEKEEPER_SERVER_URL", "  ")
	t.Setenv("FILEKEEPER_TIMEOUT", "")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "http://127.0.0.1:8000", cfg.ServerURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
}

func Test_parseEnv_BadTimeoutPanics(t *testing.T) {
	t.Setenv("FILEKEEPER_TIMEOUT", "soon")
	require.Panics(t, func() { parseEnv(&Config{}) })
}
