package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/spounge-ai/rosetta/internal/infra/ratelimit"
)

// UnaryRateLimitInterceptor throttles callers by peer address. Methods in
// exempt, such as health checks, are never throttled.
func UnaryRateLimitInterceptor(limiter ratelimit.Limiter, exempt map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if exempt[info.FullMethod] {
			return handler(ctx, req)
		}
		if !limiter.Allow(peerID(ctx)) {
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}

func peerID(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}
	return "unknown"
}
