package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "server.json", map[string]any{
		"endpoint_addr_grpc":                 "www.example:9000",
		"database_dsn":                       "postgres://db",
		"access_token_secret":                "a",
		"refresh_token_secret":               "r",
		"access_token_validity_duration":     "1m",
		"refresh_token_validity_duration":    float64(3 * time.Minute),
		"s3_public_base_url":                 "https://cdn.example",
		"login_rate_limit":                   5,
		"login_rate_window":                  "30s",
		"revoke_sessions_on_password_change": false,
	})

	t.Run("loads present fields", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "a", cfg.AccessTokenSecret)
		assert.Equal(t, "r", cfg.RefreshTokenSecret)
		assert.Equal(t, time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, 3*time.Minute, cfg.RefreshTokenValidityDuration)
		assert.Equal(t, "https://cdn.example", cfg.S3PublicBaseURL)
		assert.Equal(t, 5, cfg.LoginRateLimit)
		assert.Equal(t, 30*time.Second, cfg.LoginRateWindow)
		assert.False(t, cfg.RevokeSessionsOnPasswordChange)

		// absent in file
		assert.Equal(t, ":8000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "vidtube", cfg.S3Bucket)
	})

	t.Run("no config flag leaves config unchanged", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrGRPC: "defaults:1234", LoginRateLimit: 7}
		require.NoError(t, parseJson(cfg))

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrGRPC)
		assert.Equal(t, 7, cfg.LoginRateLimit)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))
		os.Args = []string{"testbin", "-c", bad}

		require.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(dir, "nope.json")}
		require.Error(t, parseJson(&Config{}))
	})
}
