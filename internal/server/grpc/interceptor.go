package grpc

import (
	"context"
	"crypto/rand"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	pb "github.com/dmitrijs2005/vidtube/internal/proto"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/oklog/ulid/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const requestIDMetadataKey = "x-request-id"

var protectedMethods = map[string]bool{
	pb.AuthService_Logout_FullMethodName:         true,
	pb.AuthService_ChangePassword_FullMethodName: true,
	pb.AuthService_CurrentUser_FullMethodName:    true,
}

func firstMetadata(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// requestContextInterceptor attaches the request id and the peer address.
func (s *GRPCServer) requestContextInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	id := firstMetadata(md, requestIDMetadataKey)
	if id == "" || len(id) > 64 {
		id = ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	}
	ctx = logging.ContextWithRequestID(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(requestIDMetadataKey, id))

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		host, _, err := net.SplitHostPort(p.Addr.String())
		if err != nil {
			host = p.Addr.String()
		}
		ctx = auth.WithClientIP(ctx, host)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	s.logger.Info(ctx, "rpc",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start).String(),
	)
	return resp, err
}

func accessTokenFromMetadata(md metadata.MD) string {
	if token := firstMetadata(md, common.AccessTokenHeaderName); token != "" {
		return token
	}
	header := firstMetadata(md, "authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if !protectedMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	md, _ := metadata.FromIncomingContext(ctx)

	view, err := s.guard.Authenticate(ctx, accessTokenFromMetadata(md))
	if err != nil {
		return nil, toStatus(ctx, err)
	}

	return handler(auth.WithAccount(ctx, view), req)
}
