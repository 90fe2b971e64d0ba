package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	pb "github.com/dmitrijs2005/vidtube/internal/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// expiredAccessMessage is the status message the server uses for a rejected
// access token; it triggers one refresh-and-retry.
const expiredAccessMessage = "invalid access token"

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      pb.AuthServiceClient

	mu      sync.Mutex
	session Session

	// onSessionChange is called after the token pair changes.
	onSessionChange func(Session)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {

	session := s.Session()
	err := invoker(withAccessToken(ctx, session.AccessToken), method, req, reply, cc, opts...)

	if err == nil || method == pb.AuthService_Refresh_FullMethodName || method == pb.AuthService_Login_FullMethodName {
		return err
	}

	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Unauthenticated || st.Message() != expiredAccessMessage {
		return err
	}
	if session.RefreshToken == "" {
		return err
	}

	if rerr := s.refresh(ctx, session.RefreshToken); rerr != nil {
		return err
	}

	// Tokens refreshed, retry with the new access token.
	return invoker(withAccessToken(ctx, s.Session().AccessToken), method, req, reply, cc, opts...)
}

func NewAuthClient(endpointURL string, onSessionChange func(Session)) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, onSessionChange: onSessionChange}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = pb.NewAuthServiceClient(conn)
	return nil
}

func (s *GRPCClient) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *GRPCClient) SetSession(sess Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}

func (s *GRPCClient) updateSession(sess Session) {
	s.SetSession(sess)
	if s.onSessionChange != nil {
		s.onSessionChange(sess)
	}
}

func sessionFromTokens(t *pb.Tokens) Session {
	if t == nil {
		return Session{}
	}
	return Session{
		AccessToken:           t.AccessToken,
		AccessTokenExpiresAt:  time.Unix(t.AccessTokenExpiresAt, 0).UTC(),
		RefreshToken:          t.RefreshToken,
		RefreshTokenExpiresAt: time.Unix(t.RefreshTokenExpiresAt, 0).UTC(),
	}
}

func (s *GRPCClient) Login(ctx context.Context, identifier, password string) (*pb.Account, error) {
	resp, err := s.client.Login(ctx, &pb.LoginRequest{Identifier: identifier, Password: password})
	if err != nil {
		return nil, s.mapError(err)
	}

	s.updateSession(sessionFromTokens(resp.Tokens))
	return resp.Account, nil
}

func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) error {
	resp, err := s.client.Refresh(ctx, &pb.RefreshRequest{RefreshToken: refreshToken})
	if err != nil {
		return err
	}
	s.updateSession(sessionFromTokens(resp.Tokens))
	return nil
}

// Refresh exchanges the held refresh token for a new pair.
func (s *GRPCClient) Refresh(ctx context.Context) error {
	session := s.Session()
	if session.RefreshToken == "" {
		return ErrNoSession
	}
	if err := s.refresh(ctx, session.RefreshToken); err != nil {
		return s.mapError(err)
	}
	return nil
}

// Logout ends the session on the server and forgets the local tokens.
func (s *GRPCClient) Logout(ctx context.Context) error {
	if s.Session().Empty() {
		return ErrNoSession
	}
	if _, err := s.client.Logout(ctx, &pb.LogoutRequest{}); err != nil {
		return s.mapError(err)
	}
	s.updateSession(Session{})
	return nil
}

func (s *GRPCClient) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	if s.Session().Empty() {
		return ErrNoSession
	}
	_, err := s.client.ChangePassword(ctx, &pb.ChangePasswordRequest{OldPassword: oldPassword, NewPassword: newPassword})
	if err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) CurrentUser(ctx context.Context) (*pb.Account, error) {
	if s.Session().Empty() {
		return nil, ErrNoSession
	}
	resp, err := s.client.CurrentUser(ctx, &pb.CurrentUserRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Account, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidInput, st.Message())
	case codes.ResourceExhausted:
		return ErrThrottled
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
