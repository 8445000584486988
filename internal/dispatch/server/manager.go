package server

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/service"
	"github.com/autopeer-io/dispatch/internal/dispatch/server/grpc"
	"github.com/autopeer-io/dispatch/internal/dispatch/server/http"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// Server defines the common interface for all sub-servers and background workers.
type Server interface {
	Start(ctx context.Context) error
}

// RunFunc adapts a blocking worker to Server.
type RunFunc func(ctx context.Context) error

func (f RunFunc) Start(ctx context.Context) error { return f(ctx) }

// Manager manages the lifecycle of the servers and workers of the agent.
type Manager struct {
	servers []Server
}

// NewManager creates the HTTP and gRPC servers of svc. archive may be nil.
func NewManager(cfg *Config, svc *service.Service, archive http.ArchiveLocator, workers ...Server) (*Manager, error) {
	if cfg.HttpOptions == nil || cfg.GrpcOptions == nil {
		return nil, fmt.Errorf("http and grpc options are required")
	}

	servers := []Server{
		// Roster API, probes & metrics
		http.NewServer(cfg.HttpOptions, svc, archive),
		// grpc.health.v1
		grpc.NewServer(cfg.GrpcOptions, svc),
	}
	servers = append(servers, workers...)

	return &Manager{servers: servers}, nil
}

// Start launches all servers in parallel and waits for termination. The first
// failure cancels the others.
func (m *Manager) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	for _, srv := range m.servers {
		g.Go(func() error {
			return srv.Start(ctx)
		})
	}

	log.Info("All servers starting...", "count", len(m.servers))
	return g.Wait()
}
