package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/ratelimit"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// LoginResult is returned by a successful Login.
type LoginResult struct {
	Account *models.PublicAccountView
	Tokens  TokenPair
}

// SessionOptions carries the optional collaborators of SessionService.
type SessionOptions struct {
	Limiter ratelimit.Limiter
	Metrics authRecorder
	// RevokeSessionsOnPasswordChange clears the active refresh token when
	// the password is changed.
	RevokeSessionsOnPasswordChange bool
}

// SessionService owns the session lifecycle of an account. The stored
// refresh token is the only session state: login overwrites it, refresh
// rotates it, logout clears it.
type SessionService struct {
	repomanager repomanager.RepositoryManager
	codec       tokenCodec
	hasher      passwordHasher
	limiter     ratelimit.Limiter
	metrics     authRecorder
	logger      logging.Logger

	revokeOnPasswordChange bool
}

func NewSessionService(m repomanager.RepositoryManager, codec tokenCodec, hasher passwordHasher, logger logging.Logger, opts SessionOptions) *SessionService {
	s := &SessionService{
		repomanager:            m,
		codec:                  codec,
		hasher:                 hasher,
		limiter:                opts.Limiter,
		metrics:                opts.Metrics,
		logger:                 logger,
		revokeOnPasswordChange: opts.RevokeSessionsOnPasswordChange,
	}
	if s.limiter == nil {
		s.limiter = ratelimit.Unlimited{}
	}
	if s.metrics == nil {
		s.metrics = nopRecorder{}
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	return s
}

// Login verifies identifier (username or email) and password, mints a new
// token pair and stores its refresh token, replacing any previous session.
func (s *SessionService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		s.metrics.ObserveAuth("login", outcomeValidation)
		return nil, fmt.Errorf("%w: username or email and password are required", common.ErrorValidation)
	}

	if err := s.checkLoginLimit(ctx, identifier); err != nil {
		s.metrics.ObserveAuth("login", outcomeThrottled)
		return nil, err
	}

	repo := s.repomanager.Accounts()

	account, err := repo.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			s.metrics.ObserveAuth("login", outcomeAccountNotFound)
			return nil, common.ErrAccountNotFound
		}
		s.metrics.ObserveAuth("login", outcomeStoreUnavailable)
		s.logger.Error(ctx, "find account failed", "error", err)
		return nil, storeFailure(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		s.metrics.ObserveAuth("login", outcomeInvalidPassword)
		s.logger.Info(ctx, "login rejected", "account_id", account.ID, "reason", "invalid_credentials")
		return nil, common.ErrInvalidCredentials
	}

	pair, err := issuePair(s.codec, account.ID)
	if err != nil {
		return nil, err
	}

	if err := repo.UpdateRefreshToken(ctx, account.ID, &pair.RefreshToken); err != nil {
		s.metrics.ObserveAuth("login", outcomeStoreUnavailable)
		s.logger.Error(ctx, "store refresh token failed", "account_id", account.ID, "error", err)
		return nil, storeFailure(err)
	}

	s.metrics.ObserveAuth("login", outcomeSuccess)
	s.logger.Info(ctx, "login succeeded", "account_id", account.ID)

	return &LoginResult{Account: models.NewPublicAccountView(account), Tokens: *pair}, nil
}

func (s *SessionService) checkLoginLimit(ctx context.Context, identifier string) error {
	key := strings.ToLower(identifier) + "|" + auth.ClientIPFromContext(ctx)

	allowed, retryAfter, err := s.limiter.Allow(ctx, key)
	if err != nil {
		// Limiter failures fail open.
		s.logger.Warn(ctx, "login limiter unavailable", "error", err)
		return nil
	}
	if !allowed {
		s.logger.Warn(ctx, "login throttled", "retry_after", retryAfter.String())
		return &RetryAfterError{RetryAfter: retryAfter}
	}
	return nil
}

// Refresh exchanges the account's current refresh token for a new pair. The
// presented token must be the one stored; any older token is rejected even
// if its signature is still valid.
func (s *SessionService) Refresh(ctx context.Context, presented string) (*TokenPair, error) {
	if presented == "" {
		s.metrics.ObserveAuth("refresh", outcomeInvalidToken)
		return nil, common.ErrMissingToken
	}

	accountID, err := s.codec.Verify(auth.KindRefresh, presented)
	if err != nil {
		s.metrics.ObserveAuth("refresh", outcomeInvalidToken)
		return nil, common.ErrInvalidRefreshToken
	}

	repo := s.repomanager.Accounts()

	account, err := repo.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.ObserveAuth("refresh", outcomeAccountNotFound)
			return nil, common.ErrAccountNotFound
		}
		s.metrics.ObserveAuth("refresh", outcomeStoreUnavailable)
		s.logger.Error(ctx, "find account failed", "account_id", accountID, "error", err)
		return nil, storeFailure(err)
	}

	if account.RefreshToken == nil ||
		subtle.ConstantTimeCompare([]byte(presented), []byte(*account.RefreshToken)) != 1 {
		s.metrics.ObserveAuth("refresh", outcomeReused)
		s.logger.Warn(ctx, "stale refresh token presented", "account_id", accountID)
		return nil, common.ErrRefreshTokenReused
	}

	pair, err := issuePair(s.codec, accountID)
	if err != nil {
		return nil, err
	}

	if err := repo.RotateRefreshToken(ctx, accountID, presented, pair.RefreshToken); err != nil {
		if errors.Is(err, common.ErrVersionConflict) {
			s.metrics.ObserveAuth("refresh", outcomeReused)
			s.logger.Warn(ctx, "concurrent refresh lost", "account_id", accountID)
			return nil, common.ErrRefreshTokenReused
		}
		s.metrics.ObserveAuth("refresh", outcomeStoreUnavailable)
		s.logger.Error(ctx, "rotate refresh token failed", "account_id", accountID, "error", err)
		return nil, storeFailure(err)
	}

	s.metrics.ObserveAuth("refresh", outcomeSuccess)
	return pair, nil
}

// Logout clears the stored refresh token. It is idempotent and succeeds for
// accounts that no longer exist.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	err := s.repomanager.Accounts().UpdateRefreshToken(ctx, accountID, nil)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.metrics.ObserveAuth("logout", outcomeStoreUnavailable)
		s.logger.Error(ctx, "clear refresh token failed", "account_id", accountID, "error", err)
		return storeFailure(err)
	}

	s.metrics.ObserveAuth("logout", outcomeSuccess)
	s.logger.Info(ctx, "logout", "account_id", accountID)
	return nil
}

// ChangePassword replaces the password hash after verifying oldPassword.
func (s *SessionService) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	account, err := s.repomanager.Accounts().FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.ObserveAuth("change_password", outcomeAccountNotFound)
			return common.ErrAccountNotFound
		}
		s.metrics.ObserveAuth("change_password", outcomeStoreUnavailable)
		return storeFailure(err)
	}

	if err := s.hasher.Compare(account.PasswordHash, oldPassword); err != nil {
		s.metrics.ObserveAuth("change_password", outcomeInvalidPassword)
		return common.ErrInvalidCredentials
	}

	if err := auth.ValidatePassword(newPassword); err != nil {
		s.metrics.ObserveAuth("change_password", outcomeValidation)
		return err
	}
	if newPassword == oldPassword {
		s.metrics.ObserveAuth("change_password", outcomeValidation)
		return fmt.Errorf("%w: new password must differ from the old one", common.ErrorValidation)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	err = s.repomanager.WithinTx(ctx, func(ctx context.Context, repo accounts.Repository) error {
		if err := repo.UpdatePasswordHash(ctx, accountID, hash); err != nil {
			return err
		}
		if s.revokeOnPasswordChange {
			return repo.UpdateRefreshToken(ctx, accountID, nil)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrAccountNotFound
		}
		s.metrics.ObserveAuth("change_password", outcomeStoreUnavailable)
		s.logger.Error(ctx, "update password failed", "account_id", accountID, "error", err)
		return storeFailure(err)
	}

	s.metrics.ObserveAuth("change_password", outcomeSuccess)
	s.logger.Info(ctx, "password changed", "account_id", accountID, "sessions_revoked", s.revokeOnPasswordChange)
	return nil
}
