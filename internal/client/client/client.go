package client

import (
	"context"
	"time"

	pb "github.com/dmitrijs2005/vidtube/internal/proto"
)

// Session is the token pair the client holds between calls.
type Session struct {
	AccessToken           string    `json:"access_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshToken          string    `json:"refresh_token"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
}

// Empty reports whether s carries no tokens.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == ""
}

type Client interface {
	Close() error
	Login(ctx context.Context, identifier, password string) (*pb.Account, error)
	Refresh(ctx context.Context) error
	Logout(ctx context.Context) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	CurrentUser(ctx context.Context) (*pb.Account, error)
	Session() Session
	SetSession(s Session)
}
