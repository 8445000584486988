package command

import (
	"errors"
	"fmt"

	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
)

var (
	// ErrNoRoom is returned when a command is issued without a selected room.
	ErrNoRoom = errors.New("no room selected")

	// ErrVehicleNotFound is returned when a patch targets a vehicle missing from the roster.
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrRoomChanged is returned when the room a command targeted was deselected
	// before the command reached the roster.
	ErrRoomChanged = errors.New("room selection changed")
)

// MutationError is a failed remote mutation. Its message is the one shown to the user.
type MutationError struct {
	// Op is one of "update", "delete" or "import".
	Op  string
	ID  string
	Err error
}

func (e *MutationError) Error() string {
	if e.Op == opImport {
		return fmt.Sprintf("Failed to import vehicles: %s", remote.Message(e.Err))
	}
	return fmt.Sprintf("Failed to %s vehicle %s: %s", e.Op, e.ID, remote.Message(e.Err))
}

func (e *MutationError) Unwrap() error { return e.Err }

// ValidationError is an import payload rejected before any request is sent.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return e.Err }
