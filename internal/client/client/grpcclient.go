package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// proposalAPI is the generated-style stub GRPCClient calls into.
type proposalAPI interface {
	Ping(ctx context.Context, in *api.PingRequest, opts ...grpc.CallOption) (*api.PingResponse, error)
	Register(ctx context.Context, in *api.RegisterRequest, opts ...grpc.CallOption) (*api.RegisterResponse, error)
	Login(ctx context.Context, in *api.LoginRequest, opts ...grpc.CallOption) (*api.LoginResponse, error)
	ListProposals(ctx context.Context, in *api.ListProposalsRequest, opts ...grpc.CallOption) (*api.ListProposalsResponse, error)
	GetProposal(ctx context.Context, in *api.GetProposalRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	CreateProposal(ctx context.Context, in *api.CreateProposalRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	VoteYes(ctx context.Context, in *api.VoteRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	VoteNo(ctx context.Context, in *api.VoteRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	UpdateProposal(ctx context.Context, in *api.UpdateProposalRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	DeleteProposal(ctx context.Context, in *api.DeleteProposalRequest, opts ...grpc.CallOption) (*api.ProposalResponse, error)
	ExportProposals(ctx context.Context, in *api.ExportRequest, opts ...grpc.CallOption) (*api.ExportResponse, error)
}

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      proposalAPI

	mu          sync.RWMutex
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accessToken
}

func (s *GRPCClient) setToken(t string) {
	s.mu.Lock()
	s.accessToken = t
	s.mu.Unlock()
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := s.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGophVoteClient(endpointURL string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor))
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = api.NewProposalServiceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &api.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) Register(ctx context.Context, username, password string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.client.Register(ctx, &api.RegisterRequest{Username: username, Password: password})
	return s.mapError(err)
}

// Login stores the returned access token for subsequent calls.
func (s *GRPCClient) Login(ctx context.Context, username, password string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.Login(ctx, &api.LoginRequest{Username: username, Password: password})
	if err != nil {
		return s.mapError(err)
	}
	s.setToken(resp.AccessToken)
	return nil
}

func (s *GRPCClient) Logout() { s.setToken("") }

func (s *GRPCClient) LoggedIn() bool { return s.token() != "" }

func (s *GRPCClient) List(ctx context.Context) ([]*api.Proposal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ListProposals(ctx, &api.ListProposalsRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Proposals, nil
}

func (s *GRPCClient) Get(ctx context.Context, id string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.GetProposal(ctx, &api.GetProposalRequest{ID: id})
	})
}

func (s *GRPCClient) Create(ctx context.Context, title, description string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.CreateProposal(ctx, &api.CreateProposalRequest{Title: title, Description: description})
	})
}

func (s *GRPCClient) VoteYes(ctx context.Context, id string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.VoteYes(ctx, &api.VoteRequest{ID: id})
	})
}

func (s *GRPCClient) VoteNo(ctx context.Context, id string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.VoteNo(ctx, &api.VoteRequest{ID: id})
	})
}

func (s *GRPCClient) Update(ctx context.Context, id, title, description string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.UpdateProposal(ctx, &api.UpdateProposalRequest{ID: id, Title: title, Description: description})
	})
}

func (s *GRPCClient) Delete(ctx context.Context, id string) (*api.Proposal, error) {
	return s.single(ctx, func(ctx context.Context) (*api.ProposalResponse, error) {
		return s.client.DeleteProposal(ctx, &api.DeleteProposalRequest{ID: id})
	})
}

func (s *GRPCClient) Export(ctx context.Context) (*api.ExportResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := s.client.ExportProposals(ctx, &api.ExportRequest{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) single(ctx context.Context, call func(context.Context) (*api.ProposalResponse, error)) (*api.Proposal, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	resp, err := call(ctx)
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Proposal, nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}

	var kind error
	switch st.Code() {
	case codes.Unauthenticated:
		kind = ErrUnauthorized
	case codes.PermissionDenied:
		kind = ErrForbidden
	case codes.NotFound:
		kind = ErrNotFound
	case codes.AlreadyExists:
		kind = ErrConflict
	case codes.InvalidArgument:
		kind = ErrInvalid
	case codes.Unimplemented:
		kind = ErrNotConfigured
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
	return &statusError{kind: kind, msg: st.Message()}
}
