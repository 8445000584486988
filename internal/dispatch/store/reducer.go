package store

import (
	"maps"
	"time"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// State is the roster of one room. Entries is never mutated once published;
// every change produces a new map.
type State struct {
	Entries       map[string]model.Vehicle
	LastHeartbeat time.Time
}

// Action is a roster transition. The set is closed.
type Action interface {
	isAction()
}

// Reset empties the roster.
type Reset struct{}

// Replace makes the roster exactly Vehicles.
type Replace struct {
	Vehicles []model.Vehicle
}

// Upsert inserts or fully overwrites a vehicle.
type Upsert struct {
	Vehicle model.Vehicle
}

// Patch merges fields into a known vehicle.
type Patch struct {
	ID    string
	Patch model.VehiclePatch
}

// Remove deletes a vehicle.
type Remove struct {
	ID string
}

// Heartbeat records the time of the last keep-alive.
type Heartbeat struct {
	At time.Time
}

func (Reset) isAction()     {}
func (Replace) isAction()   {}
func (Upsert) isAction()    {}
func (Patch) isAction()     {}
func (Remove) isAction()    {}
func (Heartbeat) isAction() {}

// Reduce applies a to s. It never mutates s and returns s itself when the
// action changes nothing.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Reset:
		if len(s.Entries) == 0 && s.LastHeartbeat.IsZero() && s.Entries != nil {
			return s
		}
		return State{Entries: map[string]model.Vehicle{}}

	case Replace:
		entries := make(map[string]model.Vehicle, len(a.Vehicles))
		for _, v := range a.Vehicles {
			entries[v.ID] = v
		}
		return State{Entries: entries, LastHeartbeat: s.LastHeartbeat}

	case Upsert:
		if cur, ok := s.Entries[a.Vehicle.ID]; ok && cur.Equal(a.Vehicle) {
			return s
		}
		entries := clone(s.Entries, 1)
		entries[a.Vehicle.ID] = a.Vehicle
		return State{Entries: entries, LastHeartbeat: s.LastHeartbeat}

	case Patch:
		cur, ok := s.Entries[a.ID]
		if !ok || !a.Patch.ChangesFrom(cur) {
			return s
		}
		entries := clone(s.Entries, 0)
		entries[a.ID] = a.Patch.Apply(cur)
		return State{Entries: entries, LastHeartbeat: s.LastHeartbeat}

	case Remove:
		if _, ok := s.Entries[a.ID]; !ok {
			return s
		}
		entries := clone(s.Entries, 0)
		delete(entries, a.ID)
		return State{Entries: entries, LastHeartbeat: s.LastHeartbeat}

	case Heartbeat:
		return State{Entries: s.Entries, LastHeartbeat: a.At}
	}
	return s
}

// ActionFor maps a decoded stream event onto its roster action.
func ActionFor(ev model.Event, now time.Time) Action {
	switch ev := ev.(type) {
	case model.AddEvent:
		return Upsert{Vehicle: ev.Vehicle}
	case model.UpdateEvent:
		return Patch{ID: ev.ID, Patch: ev.Patch}
	case model.DeleteEvent:
		return Remove{ID: ev.ID}
	case model.HeartbeatEvent:
		return Heartbeat{At: now}
	}
	return nil
}

func clone(m map[string]model.Vehicle, extra int) map[string]model.Vehicle {
	out := make(map[string]model.Vehicle, len(m)+extra)
	maps.Copy(out, m)
	return out
}
