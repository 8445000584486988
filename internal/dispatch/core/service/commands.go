package service

import (
	"context"

	"github.com/autopeer-io/dispatch/internal/dispatch/command"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// ErrNoRoom is returned by commands issued while no room is selected.
var ErrNoRoom = command.ErrNoRoom

// ErrRoomChanged is returned by commands overtaken by a room change.
var ErrRoomChanged = command.ErrRoomChanged

// Patch updates vehicle id in the selected room.
func (s *Service) Patch(ctx context.Context, id string, patch model.VehiclePatch) error {
	room, epoch := s.selection()
	if room == "" {
		return ErrNoRoom
	}
	return s.gateway.PatchAt(ctx, room, epoch, id, patch)
}

// Delete removes vehicle id from the selected room.
func (s *Service) Delete(ctx context.Context, id string) error {
	room, epoch := s.selection()
	if room == "" {
		return ErrNoRoom
	}
	return s.gateway.DeleteAt(ctx, room, epoch, id)
}

// Import validates a JSON array of vehicle seeds and creates them in the
// selected room. It returns the message shown on success.
func (s *Service) Import(ctx context.Context, data []byte) (string, error) {
	room, epoch := s.selection()
	if room == "" {
		return "", ErrNoRoom
	}
	seeds, err := command.ParseSeeds(data)
	if err != nil {
		return "", err
	}
	return s.gateway.ImportAt(ctx, room, epoch, seeds)
}
