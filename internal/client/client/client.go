package client

import (
	"context"

	"github.com/dmitrijs2005/gophvote/internal/api"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Logout()
	LoggedIn() bool

	List(ctx context.Context) ([]*api.Proposal, error)
	Get(ctx context.Context, id string) (*api.Proposal, error)
	Create(ctx context.Context, title, description string) (*api.Proposal, error)
	VoteYes(ctx context.Context, id string) (*api.Proposal, error)
	VoteNo(ctx context.Context, id string) (*api.Proposal, error)
	Update(ctx context.Context, id, title, description string) (*api.Proposal, error)
	Delete(ctx context.Context, id string) (*api.Proposal, error)
	Export(ctx context.Context) (*api.ExportResponse, error)
}
