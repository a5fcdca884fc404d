// Package client talks to the gophvote gRPC endpoint on behalf of the CLI.
//
// # Overview
//
// The Client interface is the contract the CLI depends on. GRPCClient
// implements it over a grpc.ClientConn: it remembers the access token from
// Login, attaches it to every call through a unary interceptor, bounds each
// call by the configured request timeout and maps gRPC status codes back
// to sentinel errors.
//
// # Error Handling
//
// Callers match failures with errors.Is against ErrUnavailable,
// ErrUnauthorized, ErrNotFound, ErrForbidden, ErrConflict, ErrInvalid and
// ErrNotConfigured. The server's message is preserved in Error().
package client
