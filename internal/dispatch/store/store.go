// Package store holds the canonical roster of the selected room. All writes
// go through Dispatch, which serialises them under one mutex.
package store

import (
	"sync"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
)

// Store serialises roster transitions and notifies watchers.
type Store struct {
	mu    sync.RWMutex
	state State
	epoch uint64
	clock clock.PassiveClock

	watchMu  sync.Mutex
	watchers map[int]chan struct{}
	nextID   int
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used to stamp heartbeats.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		state:    State{Entries: map[string]model.Vehicle{}},
		clock:    clock.RealClock{},
		watchers: map[int]chan struct{}{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Dispatch applies a and reports whether the roster changed.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	changed := s.apply(a)
	size := len(s.state.Entries)
	s.mu.Unlock()

	if changed {
		metrics.RosterSize.Set(float64(size))
		s.notify()
	}
	return changed
}

// DispatchIf applies a only while the store is still at epoch.
func (s *Store) DispatchIf(epoch uint64, a Action) bool {
	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		return false
	}
	changed := s.apply(a)
	size := len(s.state.Entries)
	s.mu.Unlock()

	if changed {
		metrics.RosterSize.Set(float64(size))
		s.notify()
	}
	return changed
}

// Reset empties the roster and starts a new epoch. Writes guarded by an
// older epoch are ignored afterwards.
func (s *Store) Reset() uint64 {
	s.mu.Lock()
	s.apply(Reset{})
	s.epoch++
	epoch := s.epoch
	s.mu.Unlock()

	metrics.RosterSize.Set(0)
	s.notify()
	return epoch
}

// Apply dispatches the action of a decoded stream event. Heartbeats are
// stamped with the store clock.
func (s *Store) Apply(ev model.Event) bool {
	a := ActionFor(ev, s.clock.Now())
	if a == nil {
		return false
	}
	return s.Dispatch(a)
}

// ApplyIf is Apply guarded by epoch, like DispatchIf.
func (s *Store) ApplyIf(epoch uint64, ev model.Event) bool {
	a := ActionFor(ev, s.clock.Now())
	if a == nil {
		return false
	}
	return s.DispatchIf(epoch, a)
}

func (s *Store) apply(a Action) bool {
	next := Reduce(s.state, a)
	changed := !sameState(s.state, next)
	s.state = next
	return changed
}

// Epoch returns the current epoch.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Get returns the vehicle with id.
func (s *Store) Get(id string) (model.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.Entries[id]
	return v, ok
}

// GetWithEpoch returns the vehicle with id and the epoch it was read at.
func (s *Store) GetWithEpoch(id string) (model.Vehicle, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state.Entries[id]
	return v, s.epoch, ok
}

// Len returns the number of vehicles.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.Entries)
}

// LastHeartbeat returns the time of the last heartbeat, zero if none.
func (s *Store) LastHeartbeat() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastHeartbeat
}

// State returns the current state. Callers must not modify Entries.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Vehicles returns the roster sorted for display.
func (s *Store) Vehicles() []model.Vehicle {
	return Sorted(s.State().Entries)
}

// Watch returns a channel that receives a value after roster changes.
// Notifications coalesce; a slow reader sees one pending signal.
func (s *Store) Watch() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	s.watchMu.Lock()
	id := s.nextID
	s.nextID++
	s.watchers[id] = ch
	s.watchMu.Unlock()

	cancel := func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
	return ch, cancel
}

func (s *Store) notify() {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func sameState(a, b State) bool {
	if !a.LastHeartbeat.Equal(b.LastHeartbeat) || len(a.Entries) != len(b.Entries) {
		return false
	}
	if len(a.Entries) == 0 {
		return true
	}
	for id, v := range a.Entries {
		w, ok := b.Entries[id]
		if !ok || !v.Equal(w) {
			return false
		}
	}
	return true
}
