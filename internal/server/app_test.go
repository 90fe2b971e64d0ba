package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.EndpointAddrHTTP = "127.0.0.1:0"
	cfg.EndpointAddrGRPC = "127.0.0.1:0"
	cfg.LogLevel = "error"
	return cfg
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.sessions)
	assert.NotNil(t, app.accounts)
	assert.NotNil(t, app.guard)
	assert.NoError(t, app.manager.Ping(context.Background()))
}

func TestNewApp_RejectsEqualSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.RefreshTokenSecret = cfg.AccessTokenSecret

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	cfg := testConfig()

	cfg.LoginRateLimit = 0
	app := &App{config: cfg}
	assert.IsType(t, ratelimit.Unlimited{}, app.newLimiter())

	cfg.LoginRateLimit = 5
	assert.IsType(t, &ratelimit.MemoryLimiter{}, app.newLimiter())

	cfg.RedisAddr = "127.0.0.1:6379"
	assert.IsType(t, &ratelimit.RedisLimiter{}, app.newLimiter())
	assert.Len(t, app.closers, 1)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(150 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop after context cancel")
	}
}
