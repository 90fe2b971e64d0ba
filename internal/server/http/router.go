// Package http exposes account and session operations over a JSON REST API
// built on gin.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/config"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

const registerBodyLimit = 10 << 20

// Deps groups the collaborators of the router.
type Deps struct {
	Sessions sessionService
	Accounts accountService
	Guard    authenticator
	Logger   logging.Logger

	// Metrics records request latency. When it also serves http.Handler
	// through Handler(), /metrics is mounted.
	Metrics interface {
		latencyObserver
		Handler() http.Handler
	}

	// Ping backs /healthz.
	Ping func(ctx context.Context) error

	CORSOrigin       string
	CookieSecureMode string
	Now              func() time.Time
}

// NewRouter builds the gin engine with all routes and middleware.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CookieSecureMode == "" {
		d.CookieSecureMode = config.CookieSecureAuto
	}

	r := gin.New()
	_ = r.SetTrustedProxies(nil)

	var observer latencyObserver
	if d.Metrics != nil {
		observer = d.Metrics
	}

	r.Use(gin.Recovery(), requestID(), accessLog(d.Logger, observer), clientIP())
	if d.CORSOrigin != "" {
		r.Use(cors.New(corsConfig(d.CORSOrigin)))
	}

	h := &handler{
		sessions: d.Sessions,
		accounts: d.Accounts,
		cookies:  cookiePolicy{secureMode: d.CookieSecureMode, now: d.Now},
		ping:     d.Ping,
	}

	r.GET("/healthz", h.health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	users := r.Group("/api/v1/users")
	{
		users.POST("/register", bodyLimit(registerBodyLimit), h.register)
		users.POST("/login", bodyLimit(jsonBodyLimit), h.login)
		users.POST("/refresh-token", bodyLimit(jsonBodyLimit), h.refresh)

		secured := users.Group("", requireAuth(d.Guard))
		secured.POST("/logout", h.logout)
		secured.POST("/change-password", bodyLimit(jsonBodyLimit), h.changePassword)
		secured.GET("/current-user", h.currentUser)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, apiResponse{StatusCode: http.StatusNotFound, Message: "route not found"})
	})

	return r
}

func corsConfig(origin string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", common.RequestIDHeaderName},
		ExposeHeaders: []string{common.RequestIDHeaderName, "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if origin == "*" {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = []string{origin}
	cfg.AllowCredentials = true
	return cfg
}
