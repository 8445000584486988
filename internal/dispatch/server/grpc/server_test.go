package grpc

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	grpcmw "github.com/autopeer-io/dispatch/internal/pkg/middleware/grpc"
	"github.com/autopeer-io/dispatch/pkg/options"
)

type fakeSource struct {
	mu       sync.Mutex
	observer func(model.Status)
}

func (f *fakeSource) Status() model.Status { return model.Status{State: model.StateLoading} }

func (f *fakeSource) OnStateChange(fn func(model.Status)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observer = fn
}

func (f *fakeSource) set(state model.ConnectionState) {
	f.mu.Lock()
	fn := f.observer
	f.mu.Unlock()
	fn(model.Status{State: state})
}

func TestHealth(t *testing.T) {
	src := &fakeSource{}
	srv := NewServer(options.NewGrpcOptions(), src)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(grpcmw.UnaryTimeoutInterceptor(5*time.Second)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)

	check := func(service string) healthpb.HealthCheckResponse_ServingStatus {
		t.Helper()
		resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			t.Fatalf("Check(%q) error = %v", service, err)
		}
		return resp.GetStatus()
	}

	if got := check(""); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("server status = %v", got)
	}
	if got := check(ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status while loading = %v", got)
	}
	src.set(model.StateConnected)
	if got := check(ServiceName); got != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("status while connected = %v", got)
	}
	src.set(model.StateError)
	if got := check(ServiceName); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("status while retrying = %v", got)
	}
}
