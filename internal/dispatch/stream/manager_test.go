package stream

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
)

const waitTimeout = 2 * time.Second

type fakeStream struct {
	msgs   chan []byte
	closed atomic.Bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{msgs: make(chan []byte, 16)}
}

func (s *fakeStream) Next(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	}
}

func (s *fakeStream) Close() error {
	s.closed.Store(true)
	return nil
}

type dialResult struct {
	stream *fakeStream
	err    error
}

// fakeDialer answers Open from results, failing when none is queued.
type fakeDialer struct {
	results chan dialResult
	calls   chan string
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{results: make(chan dialResult, 16), calls: make(chan string, 64)}
}

func (d *fakeDialer) Open(ctx context.Context, room string) (core.Stream, error) {
	d.calls <- room
	select {
	case r := <-d.results:
		if r.err != nil {
			return nil, r.err
		}
		return r.stream, nil
	default:
		return nil, errors.New("connection refused")
	}
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func expectDial(t *testing.T, d *fakeDialer, room string) {
	t.Helper()
	select {
	case got := <-d.calls:
		if got != room {
			t.Fatalf("dialled %q, want %q", got, room)
		}
	case <-time.After(waitTimeout):
		t.Fatalf("no dial for room %q", room)
	}
}

func expectNoDial(t *testing.T, d *fakeDialer) {
	t.Helper()
	select {
	case room := <-d.calls:
		t.Fatalf("unexpected dial for room %q", room)
	case <-time.After(20 * time.Millisecond):
	}
}

func newTestManager(d core.Dialer, s *store.Store, clk *clocktesting.FakeClock) *Manager {
	return NewManager(Config{
		Dialer:         d,
		Store:          s,
		Clock:          clk,
		BackoffInitial: time.Second,
		BackoffMax:     30 * time.Second,
	})
}

// advance waits for the reconnect timer and moves the clock to just before and
// then onto its deadline.
func advance(t *testing.T, clk *clocktesting.FakeClock, d *fakeDialer, delay time.Duration) {
	t.Helper()
	eventually(t, "reconnect timer", clk.HasWaiters)
	clk.Step(delay - time.Millisecond)
	expectNoDial(t, d)
	clk.Step(time.Millisecond)
}

func TestManagerBackoffSequence(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	d := newFakeDialer()
	m := newTestManager(d, store.New(), clk)
	defer m.Stop()

	m.Start("r1")
	expectDial(t, d, "r1")
	eventually(t, "error state", func() bool { return m.State() == model.StateError })

	for i, delay := range []time.Duration{1, 2, 4, 8, 16, 30, 30} {
		advance(t, clk, d, delay*time.Second)
		expectDial(t, d, "r1")
		eventually(t, "attempt count", func() bool { return m.Status().Attempt == i+1 })
	}

	st := m.Status()
	if st.State != model.StateError || st.Label != "Retrying" {
		t.Errorf("status = %+v, want error/Retrying", st)
	}
	if st.LastError == "" {
		t.Error("LastError is empty")
	}
}

func TestManagerResetsBackoffOnOpen(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	d := newFakeDialer()
	m := newTestManager(d, store.New(), clk)
	defer m.Stop()

	m.Start("r1")
	expectDial(t, d, "r1")
	advance(t, clk, d, time.Second)
	expectDial(t, d, "r1")

	// The third attempt opens, then the server ends the stream.
	stream := newFakeStream()
	d.results <- dialResult{stream: stream}
	advance(t, clk, d, 2*time.Second)
	expectDial(t, d, "r1")
	eventually(t, "connected", func() bool { return m.State() == model.StateConnected })
	if got := m.Status().Attempt; got != 0 {
		t.Errorf("attempt after open = %d, want 0", got)
	}

	close(stream.msgs)
	eventually(t, "error after drop", func() bool { return m.State() == model.StateError })
	if !stream.closed.Load() {
		t.Error("dropped stream was not closed")
	}

	advance(t, clk, d, time.Second)
	expectDial(t, d, "r1")
}

func TestManagerAppliesEvents(t *testing.T) {
	s := store.New()
	d := newFakeDialer()
	stream := newFakeStream()
	d.results <- dialResult{stream: stream}
	m := newTestManager(d, s, clocktesting.NewFakeClock(time.Now()))
	defer m.Stop()

	m.Start("r1")
	eventually(t, "connected", func() bool { return m.State() == model.StateConnected })

	for _, msg := range []string{
		`{"event":"ADD","data":{"Id":"1","OwnerId":"o","Name":"ZiU-9","Depot":"North"}}`,
		`{"event":"ADD","data":{"Id":"2","OwnerId":"o","Name":"VAZ","Depot":"South"}}`,
		`not json`,
		`{"event":"update","data":{"id":1,"route":"12","towing":"yes"}}`,
		`{"event":"DELETE","data":"2"}`,
		`{"event":"HEARTBEAT"}`,
	} {
		stream.msgs <- []byte(msg)
	}

	eventually(t, "heartbeat", func() bool { return !s.LastHeartbeat().IsZero() })
	v, ok := s.Get("1")
	if !ok || v.RouteValue() != "12" || !v.Towing {
		t.Errorf("vehicle 1 = %+v, %v", v, ok)
	}
	if _, ok := s.Get("2"); ok {
		t.Error("vehicle 2 was not removed")
	}
	if st := m.Status(); st.LastHeartbeat == nil || st.Vehicles != 1 {
		t.Errorf("status = %+v", st)
	}
}

func TestManagerStartReplacesSubscription(t *testing.T) {
	s := store.New()
	d := newFakeDialer()
	first := newFakeStream()
	d.results <- dialResult{stream: first}
	m := newTestManager(d, s, clocktesting.NewFakeClock(time.Now()))
	defer m.Stop()

	m.Start("r1")
	expectDial(t, d, "r1")
	eventually(t, "connected", func() bool { return m.State() == model.StateConnected })

	second := newFakeStream()
	d.results <- dialResult{stream: second}
	m.Start("r2")
	if !first.closed.Load() {
		t.Fatal("first stream still open after Start(r2)")
	}
	expectDial(t, d, "r2")
	eventually(t, "connected to r2", func() bool { return m.State() == model.StateConnected })
	if m.Room() != "r2" {
		t.Errorf("Room() = %q, want r2", m.Room())
	}

	// Messages of the old subscription are never read again.
	first.msgs <- []byte(`{"event":"ADD","data":{"Id":"old","OwnerId":"o","Name":"A","Depot":"D"}}`)
	second.msgs <- []byte(`{"event":"ADD","data":{"Id":"new","OwnerId":"o","Name":"B","Depot":"D"}}`)
	eventually(t, "new vehicle", func() bool { _, ok := s.Get("new"); return ok })
	if _, ok := s.Get("old"); ok {
		t.Error("event of the replaced subscription reached the store")
	}
}

func TestManagerStopDuringBackoff(t *testing.T) {
	clk := clocktesting.NewFakeClock(time.Now())
	d := newFakeDialer()
	m := newTestManager(d, store.New(), clk)

	m.Start("r1")
	expectDial(t, d, "r1")
	eventually(t, "reconnect timer", clk.HasWaiters)

	m.Stop()
	if clk.HasWaiters() {
		t.Error("reconnect timer still pending after Stop")
	}
	if st := m.Status(); st.State != model.StateOffline || st.Room != "" || st.Attempt != 0 {
		t.Errorf("status after Stop = %+v", st)
	}

	clk.Step(time.Minute)
	expectNoDial(t, d)
}

func TestManagerEmptyRoomStaysOffline(t *testing.T) {
	d := newFakeDialer()
	m := newTestManager(d, store.New(), clocktesting.NewFakeClock(time.Now()))

	m.Start("")
	expectNoDial(t, d)
	if m.State() != model.StateOffline {
		t.Errorf("State() = %s, want offline", m.State())
	}
}

func TestManagerObservers(t *testing.T) {
	d := newFakeDialer()
	d.results <- dialResult{stream: newFakeStream()}
	m := newTestManager(d, store.New(), clocktesting.NewFakeClock(time.Now()))

	var mu sync.Mutex
	var states []model.ConnectionState
	m.OnStateChange(func(st model.Status) {
		mu.Lock()
		defer mu.Unlock()
		states = append(states, st.State)
	})

	m.Start("r1")
	eventually(t, "connected", func() bool { return m.State() == model.StateConnected })
	m.Stop()

	mu.Lock()
	defer mu.Unlock()
	want := []model.ConnectionState{model.StateLoading, model.StateConnected, model.StateOffline}
	if len(states) != len(want) {
		t.Fatalf("states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("states = %v, want %v", states, want)
		}
	}
}
