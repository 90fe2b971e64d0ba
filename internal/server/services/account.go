package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/media"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// RegisterInput is the registration form. Avatar is required, CoverImage
// is optional.
type RegisterInput struct {
	Username   string
	Email      string
	FullName   string
	Password   string
	Avatar     *media.File
	CoverImage *media.File
}

// AccountService creates accounts.
type AccountService struct {
	repomanager repomanager.RepositoryManager
	hasher      passwordHasher
	uploader    media.Uploader
	metrics     authRecorder
	logger      logging.Logger
}

func NewAccountService(m repomanager.RepositoryManager, hasher passwordHasher, uploader media.Uploader, metrics authRecorder, logger logging.Logger) *AccountService {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &AccountService{repomanager: m, hasher: hasher, uploader: uploader, metrics: metrics, logger: logger}
}

func (in *RegisterInput) normalize() error {
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)

	if in.Username == "" || in.Email == "" || in.FullName == "" || strings.TrimSpace(in.Password) == "" {
		return fmt.Errorf("%w: all fields are required", common.ErrorValidation)
	}
	if strings.ContainsAny(in.Username, " \t@") {
		return fmt.Errorf("%w: username must not contain spaces or @", common.ErrorValidation)
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return auth.ValidatePassword(in.Password)
}

// Register validates the form, uploads the images and inserts the account.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.PublicAccountView, error) {
	if err := in.normalize(); err != nil {
		s.metrics.ObserveAuth("register", outcomeValidation)
		return nil, err
	}

	repo := s.repomanager.Accounts()

	exists, err := repo.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		s.metrics.ObserveAuth("register", outcomeStoreUnavailable)
		return nil, storeFailure(err)
	}
	if exists {
		s.metrics.ObserveAuth("register", outcomeConflict)
		return nil, common.ErrorAlreadyExists
	}

	if in.Avatar == nil || in.Avatar.Body == nil {
		s.metrics.ObserveAuth("register", outcomeValidation)
		return nil, common.ErrAvatarRequired
	}

	avatarURL, err := s.upload(ctx, *in.Avatar)
	if err != nil {
		return nil, err
	}

	var coverURL string
	if in.CoverImage != nil && in.CoverImage.Body != nil {
		if coverURL, err = s.upload(ctx, *in.CoverImage); err != nil {
			return nil, err
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	created, err := repo.Create(ctx, &models.Account{
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		PasswordHash:  hash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			s.metrics.ObserveAuth("register", outcomeConflict)
			return nil, common.ErrorAlreadyExists
		}
		s.metrics.ObserveAuth("register", outcomeStoreUnavailable)
		s.logger.Error(ctx, "create account failed", "error", err)
		return nil, storeFailure(err)
	}

	s.metrics.ObserveAuth("register", outcomeSuccess)
	s.logger.Info(ctx, "account registered", "account_id", created.ID)
	return models.NewPublicAccountView(created), nil
}

func (s *AccountService) upload(ctx context.Context, f media.File) (string, error) {
	url, err := s.uploader.Upload(ctx, f)
	if err != nil {
		s.metrics.ObserveAuth("register", outcomeUploadFailed)
		s.logger.Error(ctx, "image upload failed", "file", f.Name, "error", err)
		if errors.Is(err, common.ErrMediaUpload) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", common.ErrMediaUpload, err)
	}
	return url, nil
}
