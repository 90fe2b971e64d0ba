package client

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/vidtube/internal/common"
	pb "github.com/dmitrijs2005/vidtube/internal/proto"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

/*************
 * fakes
 *************/

type fakePB struct {
	loginResp *pb.LoginResponse
	loginErr  error

	refreshResp    *pb.RefreshResponse
	refreshErr     error
	lastRefreshReq *pb.RefreshRequest

	logoutErr error
	changeErr error

	currentResp *pb.CurrentUserResponse
	currentErr  error
}

func (f *fakePB) Login(ctx context.Context, in *pb.LoginRequest, opts ...grpc.CallOption) (*pb.LoginResponse, error) {
	return f.loginResp, f.loginErr
}
func (f *fakePB) Refresh(ctx context.Context, in *pb.RefreshRequest, opts ...grpc.CallOption) (*pb.RefreshResponse, error) {
	f.lastRefreshReq = in
	return f.refreshResp, f.refreshErr
}
func (f *fakePB) Logout(ctx context.Context, in *pb.LogoutRequest, opts ...grpc.CallOption) (*pb.LogoutResponse, error) {
	return &pb.LogoutResponse{}, f.logoutErr
}
func (f *fakePB) ChangePassword(ctx context.Context, in *pb.ChangePasswordRequest, opts ...grpc.CallOption) (*pb.ChangePasswordResponse, error) {
	return &pb.ChangePasswordResponse{}, f.changeErr
}
func (f *fakePB) CurrentUser(ctx context.Context, in *pb.CurrentUserRequest, opts ...grpc.CallOption) (*pb.CurrentUserResponse, error) {
	return f.currentResp, f.currentErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := &fakePB{
		refreshResp: &pb.RefreshResponse{Tokens: &pb.Tokens{AccessToken: "A2", RefreshToken: "R2"}},
	}
	var saved []Session
	c := &GRPCClient{
		client:          f,
		session:         Session{AccessToken: "A1", RefreshToken: "R1"},
		onSessionChange: func(s Session) { saved = append(saved, s) },
	}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, expiredAccessMessage)
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), pb.AuthService_CurrentUser_FullMethodName, nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "A2", c.Session().AccessToken)
	require.Equal(t, "R2", c.Session().RefreshToken)
	require.Equal(t, "R1", f.lastRefreshReq.RefreshToken)
	require.Len(t, saved, 1)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f, session: Session{AccessToken: "A1"}}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, expiredAccessMessage)
	}

	err := c.accessTokenInterceptor(context.Background(), pb.AuthService_CurrentUser_FullMethodName, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshReq)
}

func TestInterceptor_FailedRefreshReturnsOriginalError(t *testing.T) {
	f := &fakePB{refreshErr: status.Error(codes.Unauthenticated, "refresh token is expired or used")}
	c := &GRPCClient{client: f, session: Session{AccessToken: "A1", RefreshToken: "R1"}}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, expiredAccessMessage)
	}

	err := c.accessTokenInterceptor(context.Background(), pb.AuthService_Logout_FullMethodName, nil, nil, nil, invoker)
	require.Equal(t, expiredAccessMessage, status.Convert(err).Message())
	require.Equal(t, "A1", c.Session().AccessToken)
}

func TestInterceptor_SkipsRefreshForRefreshMethod(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f, session: Session{AccessToken: "A1", RefreshToken: "R1"}}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, expiredAccessMessage)
	}

	err := c.accessTokenInterceptor(context.Background(), pb.AuthService_Refresh_FullMethodName, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshReq)
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	f := &fakePB{}
	c := &GRPCClient{client: f, session: Session{AccessToken: "X", RefreshToken: "R"}}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), pb.AuthService_CurrentUser_FullMethodName, nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshReq)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "x")), ErrInvalidInput)
	require.ErrorIs(t, c.mapError(status.Error(codes.ResourceExhausted, "x")), ErrThrottled)
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
	require.NoError(t, c.mapError(nil))
}

/*************
 * Login / Logout / CurrentUser tests
 *************/

func TestLogin_StoresSession(t *testing.T) {
	f := &fakePB{loginResp: &pb.LoginResponse{
		Account: &pb.Account{Username: "alice"},
		Tokens:  &pb.Tokens{AccessToken: "A", RefreshToken: "R", AccessTokenExpiresAt: 100, RefreshTokenExpiresAt: 200},
	}}
	var saved Session
	c := &GRPCClient{client: f, onSessionChange: func(s Session) { saved = s }}

	acc, err := c.Login(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.Equal(t, "alice", acc.Username)
	require.Equal(t, "A", c.Session().AccessToken)
	require.Equal(t, int64(200), saved.RefreshTokenExpiresAt.Unix())
}

func TestLogin_MapsError(t *testing.T) {
	f := &fakePB{loginErr: status.Error(codes.Unauthenticated, "invalid credentials")}
	c := &GRPCClient{client: f}

	_, err := c.Login(context.Background(), "alice", "bad")
	require.ErrorIs(t, err, ErrUnauthorized)
	require.True(t, c.Session().Empty())
}

func TestLogout_ClearsSession(t *testing.T) {
	f := &fakePB{}
	cleared := false
	c := &GRPCClient{
		client:          f,
		session:         Session{AccessToken: "A", RefreshToken: "R"},
		onSessionChange: func(s Session) { cleared = s.Empty() },
	}

	require.NoError(t, c.Logout(context.Background()))
	require.True(t, c.Session().Empty())
	require.True(t, cleared)
}

func TestCommands_RequireSession(t *testing.T) {
	c := &GRPCClient{client: &fakePB{}}
	ctx := context.Background()

	require.ErrorIs(t, c.Refresh(ctx), ErrNoSession)
	require.ErrorIs(t, c.Logout(ctx), ErrNoSession)
	require.ErrorIs(t, c.ChangePassword(ctx, "a", "b"), ErrNoSession)
	_, err := c.CurrentUser(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentUser(t *testing.T) {
	f := &fakePB{currentResp: &pb.CurrentUserResponse{Account: &pb.Account{ID: "1", Username: "alice"}}}
	c := &GRPCClient{client: f, session: Session{AccessToken: "A"}}

	acc, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	require.Equal(t, "alice", acc.Username)
}

func TestClose_NilConn(t *testing.T) {
	c := &GRPCClient{}
	require.NoError(t, c.Close())
}
