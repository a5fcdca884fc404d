package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophvote/internal/api"
	"github.com/dmitrijs2005/gophvote/internal/common"
	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

// UserIDKey holds the authenticated caller identity in a request context.
const UserIDKey ctxKey = "userID"

var publicMethods = map[string]struct{}{
	api.FullMethod(api.MethodPing):          {},
	api.FullMethod(api.MethodRegister):      {},
	api.FullMethod(api.MethodLogin):         {},
	api.FullMethod(api.MethodListProposals): {},
	api.FullMethod(api.MethodGetProposal):   {},
}

// accessTokenInterceptor requires a valid access token for every method
// outside publicMethods and stores the user id under UserIDKey.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			accessToken = values[0]
		}
	}
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	userID, err := auth.GetUserIDFromToken(accessToken, s.jwtSecret)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, "token expired")
		}
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	ctx = logging.ContextWith(context.WithValue(ctx, UserIDKey, userID), "caller", userID)
	return handler(ctx, req)
}

func callerFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok || userID == "" {
		return "", status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return userID, nil
}
