package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/spounge-ai/rosetta/internal/infra/metrics"
)

func UnaryMetricsInterceptor(recorder metrics.Recorder) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		recorder.RecordBridgeRequest(info.FullMethod, status.Code(err).String(), time.Since(start))
		return resp, err
	}
}
