package grpc

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/spounge-ai/rosetta/internal/app/grpc/interceptors"
	app_errors "github.com/spounge-ai/rosetta/internal/errors"
	"github.com/spounge-ai/rosetta/internal/infra/config"
	"github.com/spounge-ai/rosetta/internal/infra/metrics"
	"github.com/spounge-ai/rosetta/internal/infra/ratelimit"
	"github.com/spounge-ai/rosetta/pkg/patterns/lifecycle"
)

var healthMethods = map[string]bool{
	grpc_health_v1.Health_Check_FullMethodName: true,
	grpc_health_v1.Health_Watch_FullMethodName: true,
}

type Server struct {
	grpcServer *grpc.Server
	healthSrv  *health.Server
	lis        net.Listener
	logger     *slog.Logger
	serving    atomic.Bool
}

// New listens on cfg.Address and registers the bridge. It does not serve
// until Start is called.
func New(cfg config.ServerConfig, bridge BridgeServer, recorder metrics.Recorder, errorClassifier *app_errors.ErrorClassifier, logger *slog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}
	return NewWithListener(lis, cfg, bridge, recorder, errorClassifier, logger)
}

func NewWithListener(lis net.Listener, cfg config.ServerConfig, bridge BridgeServer, recorder metrics.Recorder, errorClassifier *app_errors.ErrorClassifier, logger *slog.Logger) (*Server, error) {
	var opts []grpc.ServerOption
	if cfg.TLS.Enabled {
		creds, err := credentials.NewServerTLSFromFile(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load TLS credentials: %w", err)
		}
		opts = append(opts, grpc.Creds(creds))
	}

	opts = append(opts, grpc.ChainUnaryInterceptor(
		interceptors.UnaryMetricsInterceptor(recorder),
		interceptors.UnaryLoggingInterceptor(logger),
		interceptors.UnaryRateLimitInterceptor(ratelimit.New(cfg.RateLimiter), healthMethods),
		interceptors.UnaryValidationInterceptor(errorClassifier),
	))

	grpcServer := grpc.NewServer(opts...)
	RegisterBridgeServer(grpcServer, bridge)

	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)

	return &Server{
		grpcServer: grpcServer,
		healthSrv:  healthSrv,
		lis:        lis,
		logger:     logger,
	}, nil
}

func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}

func (s *Server) Name() string { return "grpc-bridge" }

// Start serves until Stop is called.
func (s *Server) Start(context.Context) error {
	s.logger.Info("gRPC bridge listening", "address", s.lis.Addr().String())
	s.healthSrv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	s.serving.Store(true)
	return s.grpcServer.Serve(s.lis)
}

// Stop drains in-flight calls until ctx is done, then closes hard.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping gRPC bridge...")
	s.serving.Store(false)
	s.healthSrv.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.grpcServer.Stop()
	}
	s.logger.Info("gRPC bridge stopped.")
	return nil
}

func (s *Server) Health(context.Context) lifecycle.HealthStatus {
	if !s.serving.Load() {
		return lifecycle.HealthStatus{Message: "not serving"}
	}
	return lifecycle.HealthStatus{Ready: true}
}
