package paths

// Topic segments of the dispatch MQTT layout.
// Every topic is rooted at {root}/dispatch/{room}.

// Dispatch is the namespace segment placed between the root and the room.
const Dispatch = "dispatch"

// Inbound: remote dispatch service -> agent
const (
	// Events carries stream envelopes for one room, one JSON object per message.
	// Payload: {"event":"UPDATE","data":{...}}
	// Pattern: {root}/dispatch/{room}/events
	Events = "events"
)

// Outbound: agent -> subscribers (retained)
const (
	// Roster is the latest grouped roster projection of a room.
	// Pattern: {root}/dispatch/{room}/roster
	Roster = "roster"

	// Status is the connection status of the agent following a room.
	// Payload: {"state":"connected","label":"Live", ...}
	// Pattern: {root}/dispatch/{room}/status
	Status = "status"
)
