package grpc

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	pb "github.com/dmitrijs2005/vidtube/internal/proto"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors onto gRPC status codes. Throttled calls
// also get a retry-after header in seconds.
func toStatus(ctx context.Context, err error) error {
	var retry *services.RetryAfterError
	if errors.As(err, &retry) {
		seconds := int(math.Ceil(retry.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		_ = grpc.SetHeader(ctx, metadata.Pairs("retry-after", strconv.Itoa(seconds)))
	}

	switch {
	case errors.Is(err, common.ErrAccountNotFound), errors.Is(err, common.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrMissingToken):
		return status.Error(codes.Unauthenticated, "unauthorized request")
	case errors.Is(err, common.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "invalid access token")
	case errors.Is(err, common.ErrInvalidRefreshToken), errors.Is(err, common.ErrRefreshTokenReused):
		return status.Error(codes.Unauthenticated, "refresh token is expired or used")
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrAvatarRequired):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists):
		return status.Error(codes.AlreadyExists, "username or email already exists")
	case errors.Is(err, common.ErrTooManyAttempts):
		return status.Error(codes.ResourceExhausted, "too many login attempts")
	case errors.Is(err, common.ErrStoreUnavailable), errors.Is(err, common.ErrMediaUpload):
		return status.Error(codes.Unavailable, "service temporarily unavailable")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func toPBAccount(v *models.PublicAccountView) *pb.Account {
	if v == nil {
		return nil
	}
	return &pb.Account{
		ID:         v.ID,
		Username:   v.Username,
		Email:      v.Email,
		FullName:   v.FullName,
		Avatar:     v.AvatarURL,
		CoverImage: v.CoverImageURL,
		CreatedAt:  v.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  v.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toPBTokens(p *services.TokenPair) *pb.Tokens {
	return &pb.Tokens{
		AccessToken:           p.AccessToken,
		AccessTokenExpiresAt:  p.AccessTokenExpiresAt.Unix(),
		RefreshToken:          p.RefreshToken,
		RefreshTokenExpiresAt: p.RefreshTokenExpiresAt.Unix(),
	}
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	res, err := s.sessions.Login(ctx, req.Identifier, req.Password)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &pb.LoginResponse{Account: toPBAccount(res.Account), Tokens: toPBTokens(&res.Tokens)}, nil
}

func (s *GRPCServer) Refresh(ctx context.Context, req *pb.RefreshRequest) (*pb.RefreshResponse, error) {
	pair, err := s.sessions.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return &pb.RefreshResponse{Tokens: toPBTokens(pair)}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, _ *pb.LogoutRequest) (*pb.LogoutResponse, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(ctx, common.ErrUnauthenticated)
	}

	if err := s.sessions.Logout(ctx, account.ID); err != nil {
		return nil, toStatus(ctx, err)
	}

	return &pb.LogoutResponse{}, nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *pb.ChangePasswordRequest) (*pb.ChangePasswordResponse, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(ctx, common.ErrUnauthenticated)
	}

	if err := s.sessions.ChangePassword(ctx, account.ID, req.OldPassword, req.NewPassword); err != nil {
		return nil, toStatus(ctx, err)
	}

	return &pb.ChangePasswordResponse{}, nil
}

func (s *GRPCServer) CurrentUser(ctx context.Context, _ *pb.CurrentUserRequest) (*pb.CurrentUserResponse, error) {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return nil, toStatus(ctx, common.ErrUnauthenticated)
	}

	return &pb.CurrentUserResponse{Account: toPBAccount(account)}, nil
}
