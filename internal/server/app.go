// Package server wires configuration, storage, services and transports into
// the vidtube auth server and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/metrics"
	"github.com/dmitrijs2005/vidtube/internal/server/ratelimit"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"golang.org/x/crypto/bcrypt"

	gs "github.com/dmitrijs2005/vidtube/internal/server/grpc"
	hs "github.com/dmitrijs2005/vidtube/internal/server/http"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	manager  repomanager.RepositoryManager
	sessions *services.SessionService
	accounts *services.AccountService
	guard    *services.Guard
	metrics  *metrics.Metrics
	closers  []io.Closer
}

// NewApp builds every dependency from c. An empty DatabaseDSN selects the
// in-memory credential store.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	app := &App{config: c, logger: logger, metrics: metrics.New()}

	if c.DatabaseDSN == "" {
		logger.Warn(ctx, "no database configured, using in-memory store")
		app.manager = repomanager.NewMemoryRepositoryManager()
	} else {
		pm, err := repomanager.OpenPostgres(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
		app.manager = pm
		if err := pm.RunMigrations(ctx); err != nil {
			_ = pm.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}
	}
	app.closers = append(app.closers, app.manager)

	codec, err := auth.NewCodec(c.AccessTokenSecret, c.RefreshTokenSecret,
		c.AccessTokenValidityDuration, c.RefreshTokenValidityDuration)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("token codec error: %w", err)
	}

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)

	uploader, err := media.NewS3Uploader(ctx, media.S3Config{
		RootUser:      c.S3RootUser,
		RootPassword:  c.S3RootPassword,
		Bucket:        c.S3Bucket,
		Region:        c.S3Region,
		BaseEndpoint:  c.S3BaseEndpoint,
		PublicBaseURL: c.S3PublicBaseURL,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("media storage error: %w", err)
	}

	app.sessions = services.NewSessionService(app.manager, codec, hasher, logger.With("module", "sessions"), services.SessionOptions{
		Limiter:                        app.newLimiter(),
		Metrics:                        app.metrics,
		RevokeSessionsOnPasswordChange: c.RevokeSessionsOnPasswordChange,
	})
	app.accounts = services.NewAccountService(app.manager, hasher, uploader, app.metrics, logger.With("module", "accounts"))
	app.guard = services.NewGuard(app.manager, codec, logger.With("module", "guard"))

	return app, nil
}

func (app *App) newLimiter() ratelimit.Limiter {
	c := app.config
	if c.LoginRateLimit <= 0 {
		return ratelimit.Unlimited{}
	}
	if c.RedisAddr != "" {
		client := ratelimit.NewRedisClient(c.RedisAddr, c.RedisPassword)
		app.closers = append(app.closers, client)
		return ratelimit.NewRedisLimiter(client, c.LoginRateLimit, c.LoginRateWindow)
	}
	return ratelimit.NewMemoryLimiter(c.LoginRateLimit, c.LoginRateWindow)
}

// Close releases storage and cache connections.
func (app *App) Close() {
	for i := len(app.closers) - 1; i >= 0; i-- {
		if err := app.closers[i].Close(); err != nil {
			app.logger.Error(context.Background(), "close failed", "error", err)
		}
	}
	app.closers = nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.sessions, app.guard)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "grpc server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := hs.NewRouter(hs.Deps{
		Sessions:         app.sessions,
		Accounts:         app.accounts,
		Guard:            app.guard,
		Logger:           app.logger.With("module", "http_server"),
		Metrics:          app.metrics,
		Ping:             app.manager.Ping,
		CORSOrigin:       app.config.CORSOrigin,
		CookieSecureMode: app.config.CookieSecureMode,
	})
	s := hs.NewServer(app.config.EndpointAddrHTTP, router, app.logger)

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			app.logger.Error(ctx, "http shutdown failed", "error", err)
		}
	}()

	if err := s.ListenAndServe(); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is cancelled, a signal arrives or one
// of the servers fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
	app.Close()

	app.logger.Info(context.Background(), "App stopped")
}
