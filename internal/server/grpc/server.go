// Package grpc serves the proposal registry over gRPC with the JSON codec
// declared in internal/api.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/dmitrijs2005/gophvote/internal/server/services"
	"google.golang.org/grpc"
)

type userService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type proposalService interface {
	List(ctx context.Context) ([]*models.Proposal, error)
	Get(ctx context.Context, id string) (*models.Proposal, error)
	Create(ctx context.Context, caller, title, description string) (*models.Proposal, error)
	VoteYes(ctx context.Context, caller, id string) (*models.Proposal, error)
	VoteNo(ctx context.Context, caller, id string) (*models.Proposal, error)
	Update(ctx context.Context, caller, id, title, description string) (*models.Proposal, error)
	Delete(ctx context.Context, caller, id string) (*models.Proposal, error)
}

type archiveService interface {
	Export(ctx context.Context, caller string) (*services.Export, error)
}

type GRPCServer struct {
	address   string
	users     userService
	proposals proposalService
	archive   archiveService
	logger    logging.Logger
	metrics   *metrics.Metrics
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, m *metrics.Metrics, us userService, ps proposalService, as archiveService, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		metrics:   m,
		users:     us,
		proposals: ps,
		archive:   as,
		jwtSecret: []byte(secretKey),
	}
}

// NewServer builds a grpc.Server with the metrics and auth interceptors and
// the proposal service registered.
func (s *GRPCServer) NewServer() *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if s.metrics != nil {
		interceptors = append(interceptors, s.metrics.UnaryServerInterceptor())
	}
	interceptors = append(interceptors, s.accessTokenInterceptor)

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))
	api.RegisterProposalServiceServer(srv, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
