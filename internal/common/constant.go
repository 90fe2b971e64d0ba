package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Cookie names shared by the HTTP transport and its tests.
const (
	AccessTokenCookieName  = "accessToken"
	RefreshTokenCookieName = "refreshToken"
)

// RequestIDHeaderName carries the per-request correlation id.
const RequestIDHeaderName = "X-Request-Id"
