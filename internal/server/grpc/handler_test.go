package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/dmitrijs2005/gophvote/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type fakeProposals struct {
	p   *models.Proposal
	err error

	lastCaller string
}

func (f *fakeProposals) List(ctx context.Context) ([]*models.Proposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []*models.Proposal{f.p}, nil
}

func (f *fakeProposals) Get(ctx context.Context, id string) (*models.Proposal, error) {
	return f.p, f.err
}

func (f *fakeProposals) Create(ctx context.Context, caller, title, description string) (*models.Proposal, error) {
	f.lastCaller = caller
	return f.p, f.err
}

func (f *fakeProposals) VoteYes(ctx context.Context, caller, id string) (*models.Proposal, error) {
	f.lastCaller = caller
	return f.p, f.err
}

func (f *fakeProposals) VoteNo(ctx context.Context, caller, id string) (*models.Proposal, error) {
	f.lastCaller = caller
	return f.p, f.err
}

func (f *fakeProposals) Update(ctx context.Context, caller, id, title, description string) (*models.Proposal, error) {
	f.lastCaller = caller
	return f.p, f.err
}

func (f *fakeProposals) Delete(ctx context.Context, caller, id string) (*models.Proposal, error) {
	f.lastCaller = caller
	return f.p, f.err
}

type fakeUsers struct {
	user  *models.User
	token string
	err   error
}

func (f *fakeUsers) Register(ctx context.Context, username, password string) (*models.User, error) {
	return f.user, f.err
}

func (f *fakeUsers) Login(ctx context.Context, username, password string) (string, error) {
	return f.token, f.err
}

type fakeArchive struct {
	exp *services.Export
	err error
}

func (f *fakeArchive) Export(ctx context.Context, caller string) (*services.Export, error) {
	return f.exp, f.err
}

func authed(caller string) context.Context {
	return context.WithValue(context.Background(), UserIDKey, caller)
}

func sample() *models.Proposal {
	return &models.Proposal{ID: "p1", Owner: "alice", Title: "t", Description: "d", Voters: []string{"bob"}, YesVotes: 1,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code codes.Code
	}{
		{common.ErrorNotFound, codes.NotFound},
		{fmt.Errorf("%w: title must not be empty", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrorOwnerVote, codes.PermissionDenied},
		{common.ErrorNotOwner, codes.PermissionDenied},
		{common.ErrorAlreadyVoted, codes.AlreadyExists},
		{common.ErrorAlreadyExists, codes.AlreadyExists},
		{common.ErrorUnauthorized, codes.Unauthenticated},
		{common.ErrorNotConfigured, codes.Unimplemented},
		{errors.New("db exploded"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.code.String(), func(t *testing.T) {
			s := &GRPCServer{logger: logging.Nop(), proposals: &fakeProposals{err: tt.err}}
			_, err := s.VoteYes(authed("bob"), &api.VoteRequest{ID: "p1"})
			assert.Equal(t, tt.code, status.Code(err))
		})
	}
}

func TestErrorMapping_MessagesStayReadable(t *testing.T) {
	s := &GRPCServer{logger: logging.Nop(), proposals: &fakeProposals{err: common.ErrorOwnerVote}}
	_, err := s.VoteNo(authed("alice"), &api.VoteRequest{ID: "p1"})
	assert.Equal(t, "forbidden: owners cannot vote on their own proposal", status.Convert(err).Message())

	s.proposals = &fakeProposals{err: errors.New("pq: secret detail")}
	_, err = s.VoteNo(authed("alice"), &api.VoteRequest{ID: "p1"})
	assert.Equal(t, "internal error", status.Convert(err).Message())
}

func TestHandlers_PassCallerAndConvert(t *testing.T) {
	fp := &fakeProposals{p: sample()}
	s := &GRPCServer{logger: logging.Nop(), proposals: fp}

	resp, err := s.CreateProposal(authed("carol"), &api.CreateProposalRequest{Title: "t", Description: "d"})
	require.NoError(t, err)
	assert.Equal(t, "carol", fp.lastCaller)
	assert.Equal(t, "p1", resp.Proposal.ID)
	assert.Equal(t, []string{"bob"}, resp.Proposal.Voters)

	resp.Proposal.Voters[0] = "mutated"
	assert.Equal(t, "bob", fp.p.Voters[0], "wire value must not alias the service value")

	list, err := s.ListProposals(context.Background(), &api.ListProposalsRequest{})
	require.NoError(t, err)
	require.Len(t, list.Proposals, 1)

	for name, call := range map[string]func() error{
		"update": func() error {
			_, err := s.UpdateProposal(authed("dave"), &api.UpdateProposalRequest{ID: "p1", Title: "x", Description: "y"})
			return err
		},
		"delete": func() error {
			_, err := s.DeleteProposal(authed("dave"), &api.DeleteProposalRequest{ID: "p1"})
			return err
		},
		"get": func() error {
			_, err := s.GetProposal(context.Background(), &api.GetProposalRequest{ID: "p1"})
			return err
		},
	} {
		require.NoError(t, call(), name)
	}
}

func TestHandlers_RequireCaller(t *testing.T) {
	s := &GRPCServer{logger: logging.Nop(), proposals: &fakeProposals{p: sample()}, archive: &fakeArchive{}}

	_, err := s.CreateProposal(context.Background(), &api.CreateProposalRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	_, err = s.ExportProposals(context.Background(), &api.ExportRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestRegisterAndLogin(t *testing.T) {
	s := &GRPCServer{logger: logging.Nop(), users: &fakeUsers{user: &models.User{ID: "u1", UserName: "alice"}, token: "tok"}}

	reg, err := s.Register(context.Background(), &api.RegisterRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "u1", reg.UserID)

	login, err := s.Login(context.Background(), &api.LoginRequest{Username: "alice", Password: "password1"})
	require.NoError(t, err)
	assert.Equal(t, "tok", login.AccessToken)

	s.users = &fakeUsers{err: common.ErrorUnauthorized}
	_, err = s.Login(context.Background(), &api.LoginRequest{})
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
}

func TestExport(t *testing.T) {
	s := &GRPCServer{logger: logging.Nop(), archive: &fakeArchive{exp: &services.Export{Key: "k", URL: "u", Count: 2}}}
	resp, err := s.ExportProposals(authed("alice"), &api.ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, &api.ExportResponse{Key: "k", URL: "u", Count: 2}, resp)

	s.archive = &fakeArchive{err: fmt.Errorf("%w: no endpoint", common.ErrorNotConfigured)}
	_, err = s.ExportProposals(authed("alice"), &api.ExportRequest{})
	assert.Equal(t, codes.Unimplemented, status.Code(err))
}
