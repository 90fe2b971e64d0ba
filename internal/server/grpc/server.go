package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/vidtube/internal/logging"
	pb "github.com/dmitrijs2005/vidtube/internal/proto"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type sessionService interface {
	Login(ctx context.Context, identifier, password string) (*services.LoginResult, error)
	Refresh(ctx context.Context, presented string) (*services.TokenPair, error)
	Logout(ctx context.Context, accountID string) error
	ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.PublicAccountView, error)
}

type GRPCServer struct {
	pb.UnimplementedAuthServiceServer
	address  string
	sessions sessionService
	guard    authenticator
	logger   logging.Logger
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, sessions sessionService, guard authenticator) *GRPCServer {
	if l == nil {
		l = logging.Nop()
	}
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		sessions: sessions,
		guard:    guard,
		health:   health.NewServer(),
	}
}

// newServer builds the grpc.Server with interceptors and registered services.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.requestContextInterceptor,
		s.loggingInterceptor,
		s.accessTokenInterceptor,
	))

	pb.RegisterAuthServiceServer(srv, s)
	healthpb.RegisterHealthServer(srv, s.health)
	s.health.SetServingStatus(pb.ServiceName, healthpb.HealthCheckResponse_SERVING)

	return srv
}

// Serve blocks serving lis until ctx is cancelled.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	return srv.Serve(lis)
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}
