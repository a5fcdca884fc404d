package api

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophvote.ProposalService"

// Method names of ServiceName.
const (
	MethodPing            = "Ping"
	MethodRegister        = "Register"
	MethodLogin           = "Login"
	MethodListProposals   = "ListProposals"
	MethodGetProposal     = "GetProposal"
	MethodCreateProposal  = "CreateProposal"
	MethodVoteYes         = "VoteYes"
	MethodVoteNo          = "VoteNo"
	MethodUpdateProposal  = "UpdateProposal"
	MethodDeleteProposal  = "DeleteProposal"
	MethodExportProposals = "ExportProposals"
)

// FullMethod returns the "/service/method" path gRPC routes by.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// ProposalServiceServer is implemented by the gRPC transport.
type ProposalServiceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	ListProposals(context.Context, *ListProposalsRequest) (*ListProposalsResponse, error)
	GetProposal(context.Context, *GetProposalRequest) (*ProposalResponse, error)
	CreateProposal(context.Context, *CreateProposalRequest) (*ProposalResponse, error)
	VoteYes(context.Context, *VoteRequest) (*ProposalResponse, error)
	VoteNo(context.Context, *VoteRequest) (*ProposalResponse, error)
	UpdateProposal(context.Context, *UpdateProposalRequest) (*ProposalResponse, error)
	DeleteProposal(context.Context, *DeleteProposalRequest) (*ProposalResponse, error)
	ExportProposals(context.Context, *ExportRequest) (*ExportResponse, error)
}

func unary[Req, Resp any](method string, call func(ProposalServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ProposalServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ProposalServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes ServiceName for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProposalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodPing, ProposalServiceServer.Ping),
		unary(MethodRegister, ProposalServiceServer.Register),
		unary(MethodLogin, ProposalServiceServer.Login),
		unary(MethodListProposals, ProposalServiceServer.ListProposals),
		unary(MethodGetProposal, ProposalServiceServer.GetProposal),
		unary(MethodCreateProposal, ProposalServiceServer.CreateProposal),
		unary(MethodVoteYes, ProposalServiceServer.VoteYes),
		unary(MethodVoteNo, ProposalServiceServer.VoteNo),
		unary(MethodUpdateProposal, ProposalServiceServer.UpdateProposal),
		unary(MethodDeleteProposal, ProposalServiceServer.DeleteProposal),
		unary(MethodExportProposals, ProposalServiceServer.ExportProposals),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophvote/proposal_service",
}

func RegisterProposalServiceServer(s grpc.ServiceRegistrar, srv ProposalServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}
