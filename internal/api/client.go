package api

import (
	"context"

	"google.golang.org/grpc"
)

// ProposalServiceClient calls ServiceName over any grpc.ClientConnInterface,
// always selecting the JSON codec.
type ProposalServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProposalServiceClient(cc grpc.ClientConnInterface) *ProposalServiceClient {
	return &ProposalServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProposalServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *ProposalServiceClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *ProposalServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *ProposalServiceClient) ListProposals(ctx context.Context, in *ListProposalsRequest, opts ...grpc.CallOption) (*ListProposalsResponse, error) {
	return invoke[ListProposalsResponse](ctx, c.cc, MethodListProposals, in, opts)
}

func (c *ProposalServiceClient) GetProposal(ctx context.Context, in *GetProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodGetProposal, in, opts)
}

func (c *ProposalServiceClient) CreateProposal(ctx context.Context, in *CreateProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodCreateProposal, in, opts)
}

func (c *ProposalServiceClient) VoteYes(ctx context.Context, in *VoteRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodVoteYes, in, opts)
}

func (c *ProposalServiceClient) VoteNo(ctx context.Context, in *VoteRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodVoteNo, in, opts)
}

func (c *ProposalServiceClient) UpdateProposal(ctx context.Context, in *UpdateProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodUpdateProposal, in, opts)
}

func (c *ProposalServiceClient) DeleteProposal(ctx context.Context, in *DeleteProposalRequest, opts ...grpc.CallOption) (*ProposalResponse, error) {
	return invoke[ProposalResponse](ctx, c.cc, MethodDeleteProposal, in, opts)
}

func (c *ProposalServiceClient) ExportProposals(ctx context.Context, in *ExportRequest, opts ...grpc.CallOption) (*ExportResponse, error) {
	return invoke[ExportResponse](ctx, c.cc, MethodExportProposals, in, opts)
}
