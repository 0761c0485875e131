package interceptors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// UnaryLoggingInterceptor logs one line per bridge call. Health checks from
// "rosetta ping" and orchestrators only show up at debug level.
func UnaryLoggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		level := slog.LevelInfo
		switch {
		case err != nil:
			level = slog.LevelWarn
		case strings.HasPrefix(info.FullMethod, "/grpc.health."):
			level = slog.LevelDebug
		}
		if !logger.Enabled(ctx, level) {
			return resp, err
		}

		logger.Log(ctx, level, "bridge request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"duration", time.Since(start),
			"peer", peerID(ctx),
		)
		return resp, err
	}
}
