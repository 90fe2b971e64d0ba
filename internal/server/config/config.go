// Package config handles configuration for the server component: defaults,
// JSON overlay, environment variables and command-line flags.
package config

import "time"

// Cookie Secure attribute policies.
const (
	CookieSecureAuto   = "auto"
	CookieSecureAlways = "always"
	CookieSecureNever  = "never"
)

// Config holds runtime settings for the vidtube server.
//
// An empty DatabaseDSN selects the in-memory account store; an empty
// RedisAddr selects the in-process login limiter.
type Config struct {
	EndpointAddrHTTP string `env:"VIDTUBE_HTTP_ADDR"`
	EndpointAddrGRPC string `env:"VIDTUBE_GRPC_ADDR"`
	DatabaseDSN      string `env:"VIDTUBE_DATABASE_DSN"`

	AccessTokenSecret            string        `env:"VIDTUBE_ACCESS_TOKEN_SECRET"`
	RefreshTokenSecret           string        `env:"VIDTUBE_REFRESH_TOKEN_SECRET"`
	AccessTokenValidityDuration  time.Duration `env:"VIDTUBE_ACCESS_TOKEN_EXPIRY"`
	RefreshTokenValidityDuration time.Duration `env:"VIDTUBE_REFRESH_TOKEN_EXPIRY"`

	S3RootUser      string `env:"VIDTUBE_S3_ROOT_USER"`
	S3RootPassword  string `env:"VIDTUBE_S3_ROOT_PASSWORD"`
	S3Bucket        string `env:"VIDTUBE_S3_BUCKET"`
	S3Region        string `env:"VIDTUBE_S3_REGION"`
	S3BaseEndpoint  string `env:"VIDTUBE_S3_BASE_ENDPOINT"`
	S3PublicBaseURL string `env:"VIDTUBE_S3_PUBLIC_BASE_URL"`

	RedisAddr        string        `env:"VIDTUBE_REDIS_ADDR"`
	RedisPassword    string        `env:"VIDTUBE_REDIS_PASSWORD"`
	LoginRateLimit   int           `env:"VIDTUBE_LOGIN_RATE_LIMIT"`
	LoginRateWindow  time.Duration `env:"VIDTUBE_LOGIN_RATE_WINDOW"`
	CORSOrigin       string        `env:"VIDTUBE_CORS_ORIGIN"`
	CookieSecureMode string        `env:"VIDTUBE_COOKIE_SECURE"`

	RevokeSessionsOnPasswordChange bool   `env:"VIDTUBE_REVOKE_ON_PASSWORD_CHANGE"`
	LogLevel                       string `env:"VIDTUBE_LOG_LEVEL"`
}

// LoadDefaults populates Config with development defaults.
// NOTE: the token secrets are insecure and must be overridden in production.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8000"
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.AccessTokenSecret = "dev-access-secret"
	c.RefreshTokenSecret = "dev-refresh-secret"
	c.AccessTokenValidityDuration = 15 * time.Minute
	c.RefreshTokenValidityDuration = 240 * time.Hour
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "vidtube"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PublicBaseURL = "http://127.0.0.1:9000"
	c.RedisAddr = ""
	c.RedisPassword = ""
	c.LoginRateLimit = 10
	c.LoginRateWindow = time.Minute
	c.CORSOrigin = "http://localhost:5173"
	c.CookieSecureMode = CookieSecureAuto
	c.RevokeSessionsOnPasswordChange = true
	c.LogLevel = "info"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
