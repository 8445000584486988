package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/snapshot"
)

// SelectRoom switches the session to room. The roster and the owner profiles
// of the previous room are dropped, the live stream is resubscribed and the
// snapshot is loaded in the background. An empty room tears the session down.
// Selecting the current room again does nothing.
func (s *Service) SelectRoom(ctx context.Context, room string) {
	room = strings.TrimSpace(room)

	s.selectMu.Lock()
	defer s.selectMu.Unlock()

	if room == s.Room() && (room == "" || s.manager.Room() == room) {
		return
	}

	// Stop before Reset so no event of the old room lands in the new roster.
	s.manager.Stop()
	s.loader.Invalidate()
	epoch := s.store.Reset()
	s.profiles.Reset()

	s.mu.Lock()
	s.room = room
	s.epoch = epoch
	s.loadErr = nil
	s.mu.Unlock()

	if room == "" {
		s.log.Info("Room deselected")
		return
	}
	s.log.Info("Room selected", "room", room)

	s.manager.Start(room)

	s.loads.Add(1)
	go func() {
		defer s.loads.Done()
		if err := s.load(context.WithoutCancel(ctx), room, epoch); err != nil {
			s.log.Error(err, "Failed to load roster", "room", room)
		}
	}()
}

// SelectGroup selects the active room of groupID and returns it.
func (s *Service) SelectGroup(ctx context.Context, groupID string) (string, error) {
	if s.rooms == nil {
		return "", ErrRoomsUnavailable
	}
	room, err := s.rooms.ActiveRoom(ctx, strings.TrimSpace(groupID))
	if err != nil {
		return "", fmt.Errorf("look up active room of group %s: %w", groupID, err)
	}
	if room == "" {
		return "", ErrNoActiveRoom
	}
	s.SelectRoom(ctx, room)
	return room, nil
}

// RoomInfo returns the details of the selected room.
func (s *Service) RoomInfo(ctx context.Context) (*model.Room, error) {
	if s.rooms == nil {
		return nil, ErrRoomsUnavailable
	}
	room := s.Room()
	if room == "" {
		return nil, ErrNoRoom
	}
	return s.rooms.Room(ctx, room)
}

// Refresh reloads the snapshot of the selected room. The roster is kept on failure.
func (s *Service) Refresh(ctx context.Context) error {
	room, epoch := s.selection()
	if room == "" {
		return ErrNoRoom
	}
	return s.load(ctx, room, epoch)
}

// load runs a snapshot load of room guarded by epoch. A load superseded by a
// newer one or by a room change is not an error.
func (s *Service) load(ctx context.Context, room string, epoch uint64) error {
	err := s.loader.LoadAt(ctx, room, epoch)
	if errors.Is(err, snapshot.ErrStale) {
		s.log.Debug("Dropped superseded snapshot", "room", room)
		return nil
	}
	s.setLoadErr(epoch, err)
	return err
}
