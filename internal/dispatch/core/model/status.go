package model

import "time"

// ConnectionState is the lifecycle state of a room's live stream.
type ConnectionState string

const (
	StateOffline    ConnectionState = "offline"
	StateLoading    ConnectionState = "loading"
	StateConnecting ConnectionState = "connecting"
	StateConnected  ConnectionState = "connected"
	StateError      ConnectionState = "error"
)

// States lists every connection state.
var States = []ConnectionState{StateOffline, StateLoading, StateConnecting, StateConnected, StateError}

// Label returns the status text shown to dispatchers.
func (s ConnectionState) Label() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateConnecting:
		return "Connecting"
	case StateConnected:
		return "Live"
	case StateError:
		return "Retrying"
	default:
		return "Offline"
	}
}

// Status is a snapshot of a session.
type Status struct {
	Room          string          `json:"room"`
	State         ConnectionState `json:"state"`
	Label         string          `json:"label"`
	Attempt       int             `json:"attempt"`
	Vehicles      int             `json:"vehicles"`
	LastHeartbeat *time.Time      `json:"lastHeartbeat,omitempty"`
	LastError     string          `json:"lastError,omitempty"`
	// SnapshotError is the failure of the last snapshot load, if any.
	SnapshotError string `json:"snapshotError,omitempty"`
}
