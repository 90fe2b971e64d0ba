package http

import (
	"crypto/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
)

const (
	accountKey      = "account"
	maxRequestIDLen = 64
	jsonBodyLimit   = 16 << 10
)

// latencyObserver is the subset of metrics.Metrics used by the router.
type latencyObserver interface {
	ObserveHTTP(method, route, status string, d time.Duration)
}

func newRequestID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// requestID propagates a caller-supplied X-Request-Id or mints a new ULID.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(common.RequestIDHeaderName))
		if id == "" || len(id) > maxRequestIDLen {
			id = newRequestID()
		}
		c.Header(common.RequestIDHeaderName, id)
		c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// clientIP stores the resolved client address for login throttling.
func clientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(auth.WithClientIP(c.Request.Context(), c.ClientIP()))
		c.Next()
	}
}

func accessLog(logger logging.Logger, observer latencyObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()

		if observer != nil {
			observer.ObserveHTTP(c.Request.Method, route, strconv.Itoa(status), elapsed)
		}

		args := []any{
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration", elapsed.String(),
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.Last().Error())
		}
		if status >= http.StatusInternalServerError {
			logger.Error(c.Request.Context(), "request failed", args...)
			return
		}
		logger.Info(c.Request.Context(), "request", args...)
	}
}

func bodyLimit(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}

// accessToken reads the access token from the cookie first, then from an
// Authorization: Bearer header.
func accessToken(c *gin.Context) string {
	if v, err := c.Cookie(common.AccessTokenCookieName); err == nil && v != "" {
		return v
	}
	header := c.GetHeader("Authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

func requireAuth(guard authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := guard.Authenticate(c.Request.Context(), accessToken(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(accountKey, view)
		c.Request = c.Request.WithContext(auth.WithAccount(c.Request.Context(), view))
		c.Next()
	}
}
