// Package services contains server-side business logic: the session
// lifecycle (login, refresh, logout, password change), the guard that
// authenticates access tokens, and account registration.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
)

// tokenCodec is implemented by *auth.Codec.
type tokenCodec interface {
	Issue(kind auth.Kind, accountID string) (string, time.Time, error)
	Verify(kind auth.Kind, token string) (string, error)
}

// passwordHasher is implemented by *auth.BcryptHasher.
type passwordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
	CompareDummy(password string)
}

// authRecorder is implemented by *metrics.Metrics.
type authRecorder interface {
	ObserveAuth(op, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuth(string, string) {}

// Outcome labels reported to authRecorder.
const (
	outcomeSuccess          = "success"
	outcomeAccountNotFound  = "account_not_found"
	outcomeInvalidPassword  = "invalid_credentials"
	outcomeInvalidToken     = "invalid_token"
	outcomeReused           = "reused"
	outcomeThrottled        = "throttled"
	outcomeValidation       = "validation"
	outcomeStoreUnavailable = "store_unavailable"
	outcomeConflict         = "conflict"
	outcomeUploadFailed     = "upload_failed"
)

// RetryAfterError is returned when login attempts are throttled. It
// matches common.ErrTooManyAttempts with errors.Is.
type RetryAfterError struct {
	RetryAfter time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("%v: retry after %s", common.ErrTooManyAttempts, e.RetryAfter.Round(time.Second))
}

func (e *RetryAfterError) Unwrap() error { return common.ErrTooManyAttempts }

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

func issuePair(codec tokenCodec, accountID string) (*TokenPair, error) {
	access, accessExp, err := codec.Issue(auth.KindAccess, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: issue access token: %w", common.ErrorInternal, err)
	}
	refresh, refreshExp, err := codec.Issue(auth.KindRefresh, accountID)
	if err != nil {
		return nil, fmt.Errorf("%w: issue refresh token: %w", common.ErrorInternal, err)
	}
	return &TokenPair{
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: refreshExp,
	}, nil
}

// storeFailure makes sure err matches common.ErrStoreUnavailable.
func storeFailure(err error) error {
	if errors.Is(err, common.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
}
