package server

import (
	"context"
	"errors"
	"testing"
)

func TestManagerStopsOnFirstFailure(t *testing.T) {
	boom := errors.New("listen: address in use")
	stopped := make(chan struct{})

	m := &Manager{servers: []Server{
		RunFunc(func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return nil
		}),
		RunFunc(func(context.Context) error { return boom }),
	}}

	if err := m.Start(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("Start() error = %v, want %v", err, boom)
	}
	select {
	case <-stopped:
	default:
		t.Error("worker was not cancelled")
	}
}

func TestNewManagerRequiresOptions(t *testing.T) {
	if _, err := NewManager(&Config{}, nil, nil); err == nil {
		t.Error("NewManager() error = nil")
	}
}
