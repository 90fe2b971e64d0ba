// Package common defines shared constants and sentinel errors used across
// vidtube server and client layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// ErrStoreUnavailable wraps credential store failures. It is the only
	// transient condition; every other error is terminal for the request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Validation / registration errors.
	ErrorValidation   = errors.New("validation error")
	ErrAvatarRequired = errors.New("avatar file is required")
	ErrMediaUpload    = errors.New("media upload failed")

	// Session errors.
	ErrAccountNotFound     = errors.New("account not found")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMissingToken        = errors.New("missing token")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenReused  = errors.New("refresh token reused")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrTooManyAttempts     = errors.New("too many attempts")

	// Token codec errors (invalid or malformed token).
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrMalformedToken   = errors.New("malformed token")
)
