package grpc

import (
	"context"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
)

func toAPI(p *models.Proposal) *api.Proposal {
	if p == nil {
		return nil
	}
	c := p.Clone()
	return &api.Proposal{
		ID:          c.ID,
		Owner:       c.Owner,
		Title:       c.Title,
		Description: c.Description,
		Voters:      c.Voters,
		YesVotes:    c.YesVotes,
		NoVotes:     c.NoVotes,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "username", req.Username)

	user, err := s.users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", user.UserName, "id", user.ID)
	return &api.RegisterResponse{UserID: user.ID, Username: user.UserName}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	token, err := s.users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.LoginResponse{AccessToken: token}, nil
}

func (s *GRPCServer) ListProposals(ctx context.Context, req *api.ListProposalsRequest) (*api.ListProposalsResponse, error) {
	list, err := s.proposals.List(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	out := make([]*api.Proposal, 0, len(list))
	for _, p := range list {
		out = append(out, toAPI(p))
	}
	return &api.ListProposalsResponse{Proposals: out}, nil
}

func (s *GRPCServer) GetProposal(ctx context.Context, req *api.GetProposalRequest) (*api.ProposalResponse, error) {
	p, err := s.proposals.Get(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ProposalResponse{Proposal: toAPI(p)}, nil
}

func (s *GRPCServer) CreateProposal(ctx context.Context, req *api.CreateProposalRequest) (*api.ProposalResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.proposals.Create(ctx, caller, req.Title, req.Description)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ProposalResponse{Proposal: toAPI(p)}, nil
}

func (s *GRPCServer) VoteYes(ctx context.Context, req *api.VoteRequest) (*api.ProposalResponse, error) {
	return s.vote(ctx, req, s.proposals.VoteYes)
}

func (s *GRPCServer) VoteNo(ctx context.Context, req *api.VoteRequest) (*api.ProposalResponse, error) {
	return s.vote(ctx, req, s.proposals.VoteNo)
}

func (s *GRPCServer) vote(ctx context.Context, req *api.VoteRequest,
	cast func(context.Context, string, string) (*models.Proposal, error)) (*api.ProposalResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := cast(ctx, caller, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ProposalResponse{Proposal: toAPI(p)}, nil
}

func (s *GRPCServer) UpdateProposal(ctx context.Context, req *api.UpdateProposalRequest) (*api.ProposalResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.proposals.Update(ctx, caller, req.ID, req.Title, req.Description)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ProposalResponse{Proposal: toAPI(p)}, nil
}

func (s *GRPCServer) DeleteProposal(ctx context.Context, req *api.DeleteProposalRequest) (*api.ProposalResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.proposals.Delete(ctx, caller, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &api.ProposalResponse{Proposal: toAPI(p)}, nil
}

func (s *GRPCServer) ExportProposals(ctx context.Context, req *api.ExportRequest) (*api.ExportResponse, error) {
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, err
	}
	exp, err := s.archive.Export(ctx, caller)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Export written", "key", exp.Key, "count", exp.Count)
	return &api.ExportResponse{Key: exp.Key, URL: exp.URL, Count: exp.Count}, nil
}
