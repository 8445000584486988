package notifier

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	pkgmqtt "github.com/autopeer-io/dispatch/pkg/mqtt"
	"github.com/autopeer-io/dispatch/pkg/mqtt/topic"
)

type message struct {
	Topic   string
	Retain  bool
	Payload string
}

type fakeClient struct {
	mu   sync.Mutex
	sent []message
}

func (c *fakeClient) Start(context.Context) error { return nil }
func (c *fakeClient) Disconnect(context.Context)  {}

func (c *fakeClient) Publish(_ context.Context, topic string, _ int, retain bool, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message{Topic: topic, Retain: retain, Payload: string(payload)})
	return nil
}

func (c *fakeClient) Subscribe(context.Context, string, int, pkgmqtt.MessageHandler) error {
	return nil
}
func (c *fakeClient) Unsubscribe(context.Context, string) error { return nil }
func (c *fakeClient) AwaitConnection(context.Context) error     { return nil }
func (c *fakeClient) IsConnected() bool                         { return true }

func (c *fakeClient) messages() []message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]message(nil), c.sent...)
}

type fakeSource struct {
	mu       sync.Mutex
	status   model.Status
	vehicles []model.Vehicle
	changes  chan struct{}
	observer func(model.Status)
}

func (f *fakeSource) Status() model.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *fakeSource) Vehicles() []model.Vehicle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.vehicles
}

func (f *fakeSource) Watch() (<-chan struct{}, func()) { return f.changes, func() {} }

func (f *fakeSource) OnStateChange(fn func(model.Status)) { f.observer = fn }

func (f *fakeSource) set(st model.Status) {
	f.mu.Lock()
	f.status = st
	f.mu.Unlock()
	f.observer(st)
}

func TestNotifierTopics(t *testing.T) {
	c := &fakeClient{}
	n := NewMQTTNotifier(c, topic.NewTopicBuilder("autopeer/v1"), 1)

	n.PublishRoster(context.Background(), "r/1", []byte("[]"))
	n.PublishStatus(context.Background(), "r/1", nil)

	want := []message{
		{Topic: "autopeer/v1/dispatch/r_1/roster", Retain: true, Payload: "[]"},
		{Topic: "autopeer/v1/dispatch/r_1/status", Retain: true},
	}
	if diff := cmp.Diff(want, c.messages()); diff != "" {
		t.Errorf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRelay(t *testing.T) {
	c := &fakeClient{}
	src := &fakeSource{
		status:   model.Status{Room: "r1", State: model.StateLoading},
		vehicles: []model.Vehicle{{ID: "1", OwnerID: "2", Name: "Bus", Depot: "A"}},
		changes:  make(chan struct{}),
	}
	relay := NewRelay(NewMQTTNotifier(c, topic.NewTopicBuilder("root"), 1), src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		relay.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitFor(t, "initial publish", func() bool { return len(c.messages()) == 2 })
	first := c.messages()
	if first[0].Topic != "root/dispatch/r1/roster" || first[1].Topic != "root/dispatch/r1/status" {
		t.Fatalf("initial topics = %+v", first)
	}
	var roster RosterMessage
	if err := json.Unmarshal([]byte(first[0].Payload), &roster); err != nil {
		t.Fatal(err)
	}
	if roster.Room != "r1" || len(roster.Vehicles) != 1 {
		t.Errorf("roster message = %+v", roster)
	}

	// Unbuffered, so the send returns once Run took the change.
	src.changes <- struct{}{}
	waitFor(t, "roster update", func() bool { return len(c.messages()) == 3 })
	if got := c.messages()[2].Topic; got != "root/dispatch/r1/roster" {
		t.Errorf("update topic = %q", got)
	}

	src.set(model.Status{Room: "r1", State: model.StateConnected})
	waitFor(t, "status update", func() bool { return len(c.messages()) == 4 })
	var st model.Status
	if err := json.Unmarshal([]byte(c.messages()[3].Payload), &st); err != nil {
		t.Fatal(err)
	}
	if st.State != model.StateConnected {
		t.Errorf("status state = %q", st.State)
	}

	src.set(model.Status{State: model.StateOffline})
	waitFor(t, "clear", func() bool { return len(c.messages()) == 6 })
	for _, m := range c.messages()[4:] {
		if m.Payload != "" || !m.Retain {
			t.Errorf("clear message = %+v", m)
		}
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
