package store

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

func ids(vs []model.Vehicle) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, v.ID)
	}
	return out
}

func TestStoreApply(t *testing.T) {
	routed := trolley()
	routed.Route = model.String("7")

	tests := []struct {
		name        string
		event       model.Event
		wantChanged bool
		want        []model.Vehicle
	}{
		{
			name:        "route update touches only the route",
			event:       model.UpdateEvent{ID: "101", Patch: model.VehiclePatch{HasRoute: true, Route: model.String("7")}},
			wantChanged: true,
			want:        []model.Vehicle{routed},
		},
		{
			name:  "delete of an unknown vehicle changes nothing",
			event: model.DeleteEvent{ID: "999"},
			want:  []model.Vehicle{trolley()},
		},
		{
			name:        "delete of a known vehicle removes it",
			event:       model.DeleteEvent{ID: "101"},
			wantChanged: true,
			want:        []model.Vehicle{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Dispatch(Replace{Vehicles: []model.Vehicle{trolley()}})

			if changed := s.Apply(tt.event); changed != tt.wantChanged {
				t.Errorf("Apply() = %v, want %v", changed, tt.wantChanged)
			}
			if diff := cmp.Diff(tt.want, s.Vehicles()); diff != "" {
				t.Errorf("roster mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestStoreHeartbeatUsesClock(t *testing.T) {
	now := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	fc := clocktesting.NewFakePassiveClock(now)
	s := New(WithClock(fc))

	s.Apply(model.HeartbeatEvent{})
	if got := s.LastHeartbeat(); !got.Equal(now) {
		t.Errorf("LastHeartbeat() = %v, want %v", got, now)
	}

	s.Reset()
	if !s.LastHeartbeat().IsZero() {
		t.Error("Reset kept the heartbeat")
	}
}

func TestStoreEpoch(t *testing.T) {
	s := New()
	s.Dispatch(Upsert{Vehicle: trolley()})

	_, epoch, ok := s.GetWithEpoch("101")
	if !ok {
		t.Fatal("vehicle missing")
	}

	if !s.DispatchIf(epoch, Patch{ID: "101", Patch: model.VehiclePatch{Towing: model.Bool(true)}}) {
		t.Error("DispatchIf at current epoch was rejected")
	}

	if next := s.Reset(); next != epoch+1 {
		t.Errorf("Reset() epoch = %d, want %d", next, epoch+1)
	}
	s.Dispatch(Upsert{Vehicle: trolley()})

	if s.DispatchIf(epoch, Remove{ID: "101"}) {
		t.Error("DispatchIf at a stale epoch was applied")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestStoreWatchCoalesces(t *testing.T) {
	s := New()
	ch, cancel := s.Watch()
	defer cancel()

	s.Dispatch(Upsert{Vehicle: trolley()})
	s.Dispatch(Remove{ID: "101"})

	select {
	case <-ch:
	default:
		t.Fatal("no notification")
	}
	select {
	case <-ch:
		t.Fatal("notifications did not coalesce")
	default:
	}

	// No-op writes do not notify.
	s.Dispatch(Remove{ID: "101"})
	select {
	case <-ch:
		t.Fatal("no-op write notified")
	default:
	}

	cancel()
	s.Dispatch(Upsert{Vehicle: trolley()})
	select {
	case <-ch:
		t.Fatal("cancelled watcher notified")
	default:
	}
}

func TestSortedOrder(t *testing.T) {
	entries := map[string]model.Vehicle{
		"3": {ID: "3", Name: "bravo"},
		"2": {ID: "2", Name: "Alpha"},
		"1": {ID: "1", Name: "alpha"},
		"9": {ID: "9", Name: "Émile"},
		"8": {ID: "8", Name: "Eve"},
		"b": {ID: "b", Name: "Zed"},
		"B": {ID: "B", Name: "Zed"},
	}

	want := []string{"1", "2", "3", "9", "8", "B", "b"}
	for i := 0; i < 5; i++ {
		if diff := cmp.Diff(want, ids(Sorted(entries))); diff != "" {
			t.Fatalf("Sorted() run %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}
