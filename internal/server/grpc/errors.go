package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophvote/internal/common"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps service errors to gRPC codes. Domain errors keep their
// message; anything unexpected is logged and reported as internal.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, common.ErrorNotFound):
		code = codes.NotFound
	case errors.Is(err, common.ErrorValidation):
		code = codes.InvalidArgument
	case errors.Is(err, common.ErrorForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, common.ErrorAlreadyVoted), errors.Is(err, common.ErrorAlreadyExists):
		code = codes.AlreadyExists
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		code = codes.Unauthenticated
	case errors.Is(err, common.ErrorNotConfigured):
		code = codes.Unimplemented
	default:
		s.logger.Error(ctx, "request failed", "error", err)
		return status.Error(codes.Internal, common.ErrorInternal.Error())
	}
	return status.Error(code, err.Error())
}
