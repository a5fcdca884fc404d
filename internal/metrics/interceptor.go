package metrics

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor records in-flight gauge, count and latency for every
// unary call, labelled by full method name and status code.
func (m *Metrics) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		inFlight := m.GrpcRequestInFlight.WithLabelValues(info.FullMethod)
		inFlight.Inc()
		defer inFlight.Dec()

		start := time.Now()
		resp, err := handler(ctx, req)
		m.RecordGrpcRequest(info.FullMethod, status.Code(err).String(), time.Since(start))

		return resp, err
	}
}
