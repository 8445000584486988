package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/pkg/log"
	"github.com/autopeer-io/dispatch/pkg/options"
)

// ServiceName is the health service reporting the live roster stream.
const ServiceName = "dispatch.roster"

// StateSource reports connection state changes.
type StateSource interface {
	Status() model.Status
	OnStateChange(fn func(model.Status))
}

type Server struct {
	server  *grpc.Server
	health  *health.Server
	options *options.GrpcOptions
}

// NewServer creates a gRPC server exposing grpc.health.v1. ServiceName is
// SERVING while the roster stream is connected.
func NewServer(opts *options.GrpcOptions, src StateSource) *Server {
	s := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s) // Enable grpc_cli support

	srv := &Server{server: s, health: hs, options: opts}
	src.OnStateChange(srv.update)
	srv.update(src.Status())
	return srv
}

func (s *Server) update(st model.Status) {
	s.health.SetServingStatus(ServiceName, servingStatus(st.State))
}

func servingStatus(state model.ConnectionState) healthpb.HealthCheckResponse_ServingStatus {
	if state == model.StateConnected {
		return healthpb.HealthCheckResponse_SERVING
	}
	return healthpb.HealthCheckResponse_NOT_SERVING
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting gRPC Server", "addr", s.options.Addr)
	return s.Serve(ctx, lis)
}

// Serve accepts connections on lis until ctx is done.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.health.Shutdown()
		s.server.GracefulStop()
		return nil
	}
}
