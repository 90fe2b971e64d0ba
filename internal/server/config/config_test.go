package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8000", c.EndpointAddrHTTP)
	assert.Equal(t, ":50051", c.EndpointAddrGRPC)
	assert.Empty(t, c.DatabaseDSN)
	assert.NotEqual(t, c.AccessTokenSecret, c.RefreshTokenSecret)
	assert.Equal(t, 15*time.Minute, c.AccessTokenValidityDuration)
	assert.Equal(t, 240*time.Hour, c.RefreshTokenValidityDuration)
	assert.Equal(t, "vidtube", c.S3Bucket)
	assert.Equal(t, 10, c.LoginRateLimit)
	assert.Equal(t, time.Minute, c.LoginRateWindow)
	assert.Equal(t, CookieSecureAuto, c.CookieSecureMode)
	assert.True(t, c.RevokeSessionsOnPasswordChange)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoadConfig_Layers(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"endpoint_addr_http": ":9000",
		"database_dsn":       "postgres://from-file",
		"log_level":          "debug",
	})

	t.Setenv("VIDTUBE_DATABASE_DSN", "postgres://from-env")
	t.Setenv("VIDTUBE_LOGIN_RATE_LIMIT", "3")

	os.Args = []string{"server", "-c", path, "-l", "warn"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.EndpointAddrHTTP)
	assert.Equal(t, "postgres://from-env", cfg.DatabaseDSN)
	assert.Equal(t, 3, cfg.LoginRateLimit)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
}

func TestLoadConfig_NoSources(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"server"}

	cfg, err := LoadConfig()
	require.NoError(t, err)

	var want Config
	want.LoadDefaults()
	assert.Equal(t, want, *cfg)
}
