package core

import (
	"context"
	"io"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// RosterAPI is the remote dispatch service as seen by the loader and the gateway.
type RosterAPI interface {
	// FetchRoster returns the raw snapshot body of a room. An empty body means an empty roster.
	FetchRoster(ctx context.Context, room string) ([]byte, error)

	// PatchVehicle sends the present fields of patch.
	PatchVehicle(ctx context.Context, room, id string, patch model.VehiclePatch) error

	// DeleteVehicle removes a vehicle. Implementations report a missing vehicle as an error
	// matching remote.IsNotFound.
	DeleteVehicle(ctx context.Context, room, id string) error

	// ImportVehicles creates vehicles from seeds.
	ImportVehicles(ctx context.Context, room string, seeds []model.Seed) error
}

// ProfileAPI resolves owner profiles. A nil profile with a nil error means the user does not exist.
type ProfileAPI interface {
	ShortProfile(ctx context.Context, userID string) (*model.Profile, error)
}

// RoomAPI looks up rooms.
type RoomAPI interface {
	// ActiveRoom returns the current room of a group, or "" if it has none.
	ActiveRoom(ctx context.Context, groupID string) (string, error)

	// Room returns the details of a room.
	Room(ctx context.Context, roomID string) (*model.Room, error)
}

// Dialer opens the live event stream of a room.
type Dialer interface {
	Open(ctx context.Context, room string) (Stream, error)
}

// Stream is one open live connection. Next blocks until the next message,
// the end of the stream or the cancellation of ctx.
type Stream interface {
	Next(ctx context.Context) ([]byte, error)
	io.Closer
}

// Archiver stores roster exports.
type Archiver interface {
	Put(ctx context.Context, key string, payload []byte) error
}

// Publisher relays roster state to subscribers.
type Publisher interface {
	PublishRoster(ctx context.Context, room string, payload []byte) error
	PublishStatus(ctx context.Context, room string, payload []byte) error
}
