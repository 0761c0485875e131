package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/spounge-ai/rosetta/pkg/patterns/lifecycle"
)

// Server exposes /metrics over HTTP.
type Server struct {
	srv     *http.Server
	lis     net.Listener
	logger  *slog.Logger
	serving atomic.Bool
}

// NewServer binds address immediately so a port conflict fails at startup.
func NewServer(address string, m *Metrics, logger *slog.Logger) (*Server, error) {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	return &Server{
		srv:    &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		lis:    lis,
		logger: logger,
	}, nil
}

func (s *Server) Name() string { return "metrics" }

func (s *Server) Addr() net.Addr { return s.lis.Addr() }

func (s *Server) Start(context.Context) error {
	s.logger.Info("metrics listening", "address", s.lis.Addr().String())
	s.serving.Store(true)
	if err := s.srv.Serve(s.lis); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.serving.Store(false)
	return s.srv.Shutdown(ctx)
}

func (s *Server) Health(context.Context) lifecycle.HealthStatus {
	return lifecycle.HealthStatus{Ready: s.serving.Load()}
}
