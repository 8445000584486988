// Package service implements the dispatch session: the selected room and the
// use cases operating on its roster.
package service

import (
	"context"
	"errors"
	"sync"

	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/profile"
	"github.com/autopeer-io/dispatch/internal/dispatch/snapshot"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/internal/dispatch/stream"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// ErrNoActiveRoom is returned when a group has no running room.
var ErrNoActiveRoom = errors.New("group has no active room")

// ErrRoomsUnavailable is returned by room lookups when no RoomAPI is configured.
var ErrRoomsUnavailable = errors.New("room lookup is not configured")

// Deps are the collaborators of a Service.
type Deps struct {
	Store    *store.Store
	Loader   *snapshot.Loader
	Manager  *stream.Manager
	Gateway  *command.Gateway
	Profiles *profile.Cache
	// Rooms is optional.
	Rooms  core.RoomAPI
	Logger log.Logger
}

// Service owns one dispatch session. At most one room is selected at a time.
type Service struct {
	store    *store.Store
	loader   *snapshot.Loader
	manager  *stream.Manager
	gateway  *command.Gateway
	profiles *profile.Cache
	rooms    core.RoomAPI
	log      log.Logger

	// selectMu serialises room changes.
	selectMu sync.Mutex

	// mu guards the selection. epoch is the store epoch started for room.
	mu      sync.RWMutex
	room    string
	epoch   uint64
	loadErr error

	loads sync.WaitGroup
}

// New creates a Service with no room selected.
func New(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = log.NewNopLogger()
	}
	return &Service{
		store:    d.Store,
		loader:   d.Loader,
		manager:  d.Manager,
		gateway:  d.Gateway,
		profiles: d.Profiles,
		rooms:    d.Rooms,
		log:      d.Logger,
	}
}

// Room returns the selected room, or "".
func (s *Service) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room
}

// selection returns the selected room with the store epoch it owns.
func (s *Service) selection() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room, s.epoch
}

// Status reports the connection and roster state of the session.
func (s *Service) Status() model.Status {
	st := s.manager.Status()

	s.mu.RLock()
	defer s.mu.RUnlock()
	st.Room = s.room
	if s.loadErr != nil {
		st.SnapshotError = s.loadErr.Error()
	}
	return st
}

// Connected reports whether the live stream is open.
func (s *Service) Connected() bool {
	return s.manager.State() == model.StateConnected
}

// OnStateChange registers fn to run after every connection state change.
func (s *Service) OnStateChange(fn func(model.Status)) {
	s.manager.OnStateChange(fn)
}

// Watch returns a channel signalled after roster changes, and its cancel func.
func (s *Service) Watch() (<-chan struct{}, func()) {
	return s.store.Watch()
}

// Close deselects the room and waits for background loads to finish.
func (s *Service) Close() {
	s.SelectRoom(context.Background(), "")
	s.loads.Wait()
}

func (s *Service) setLoadErr(epoch uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch == epoch {
		s.loadErr = err
	}
}
