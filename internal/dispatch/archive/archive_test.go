package archive

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
)

type memArchiver struct {
	mu      sync.Mutex
	objects map[string][]byte
	keys    []string
	err     error
}

func (m *memArchiver) Put(_ context.Context, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = payload
	m.keys = append(m.keys, key)
	return nil
}

func (m *memArchiver) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}

type fakeSource struct {
	room     string
	vehicles []model.Vehicle
	changes  chan struct{}
}

func (f *fakeSource) Status() model.Status {
	return model.Status{Room: f.room, State: model.StateConnected, Vehicles: len(f.vehicles)}
}

func (f *fakeSource) Vehicles() []model.Vehicle { return f.vehicles }

func (f *fakeSource) Watch() (<-chan struct{}, func()) { return f.changes, func() {} }

var start = time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

func TestExport(t *testing.T) {
	store := &memArchiver{}
	src := &fakeSource{room: "r1", vehicles: []model.Vehicle{{ID: "1", OwnerID: "2", Name: "Bus", Depot: "A"}}}
	e := NewExporter(store, src, time.Minute, "/rooms/", clocktesting.NewFakeClock(start), nil)

	if err := e.Export(context.Background()); err != nil {
		t.Fatal(err)
	}

	want := []string{"rooms/r1/20250304T050607Z.json", "rooms/r1/latest.json"}
	if diff := cmp.Diff(want, store.keys); diff != "" {
		t.Fatalf("keys mismatch (-want +got):\n%s", diff)
	}
	if got := LatestKey("rooms", "r1"); got != want[1] {
		t.Errorf("LatestKey() = %q", got)
	}

	var got Export
	if err := json.Unmarshal(store.objects[want[1]], &got); err != nil {
		t.Fatal(err)
	}
	if got.Room != "r1" || !got.ExportedAt.Equal(start) || len(got.Vehicles) != 1 || got.Status.State != model.StateConnected {
		t.Errorf("export = %+v", got)
	}
}

func TestExportWithoutRoom(t *testing.T) {
	store := &memArchiver{}
	e := NewExporter(store, &fakeSource{}, time.Minute, "rooms", clocktesting.NewFakeClock(start), nil)

	if err := e.Export(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := store.count(); n != 0 {
		t.Errorf("uploaded %d objects without a room", n)
	}
}

func TestExportFailure(t *testing.T) {
	before := testutil.ToFloat64(metrics.ArchiveUploads.WithLabelValues("failed"))
	store := &memArchiver{err: errors.New("access denied")}
	e := NewExporter(store, &fakeSource{room: "r1"}, time.Minute, "rooms", clocktesting.NewFakeClock(start), nil)

	if err := e.Export(context.Background()); err == nil {
		t.Fatal("Export() error = nil")
	}
	if got := testutil.ToFloat64(metrics.ArchiveUploads.WithLabelValues("failed")) - before; got != 1 {
		t.Errorf("failed uploads = %v, want 1", got)
	}
}

func TestRunExportsOnlyAfterChanges(t *testing.T) {
	store := &memArchiver{}
	src := &fakeSource{room: "r1", changes: make(chan struct{})}
	clk := clocktesting.NewFakeClock(start)
	e := NewExporter(store, src, time.Minute, "rooms", clk, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, "ticker", clk.HasWaiters)

	clk.Step(time.Minute)
	time.Sleep(20 * time.Millisecond)
	if n := store.count(); n != 0 {
		t.Fatalf("uploaded %d objects without changes", n)
	}

	// The channel is unbuffered, so Run has seen the change once the send returns.
	src.changes <- struct{}{}
	clk.Step(time.Minute)
	waitFor(t, "export", func() bool { return store.count() == 2 })

	clk.Step(time.Minute)
	time.Sleep(20 * time.Millisecond)
	if n := store.count(); n != 2 {
		t.Errorf("uploaded %d objects, want 2", n)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
