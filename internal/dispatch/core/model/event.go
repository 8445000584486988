package model

// Event is a decoded stream message. The variants are AddEvent, UpdateEvent,
// DeleteEvent and HeartbeatEvent.
type Event interface {
	// Kind returns the lower-case event tag, used as a metric label.
	Kind() string

	isEvent()
}

// AddEvent inserts or fully replaces a vehicle.
type AddEvent struct {
	Vehicle Vehicle
}

// UpdateEvent merges a partial update into a known vehicle.
type UpdateEvent struct {
	ID    string
	Patch VehiclePatch
}

// DeleteEvent removes a vehicle.
type DeleteEvent struct {
	ID string
}

// HeartbeatEvent is a keep-alive without payload.
type HeartbeatEvent struct{}

func (AddEvent) Kind() string       { return "add" }
func (UpdateEvent) Kind() string    { return "update" }
func (DeleteEvent) Kind() string    { return "delete" }
func (HeartbeatEvent) Kind() string { return "heartbeat" }

func (AddEvent) isEvent()       {}
func (UpdateEvent) isEvent()    {}
func (DeleteEvent) isEvent()    {}
func (HeartbeatEvent) isEvent() {}
