// Package envelope turns raw stream messages and snapshot records into typed
// values. Nothing in it returns an error for bad input; callers get ok=false
// and drop the message.
package envelope

import (
	"errors"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// Event tags.
const (
	TagAdd       = "ADD"
	TagUpdate    = "UPDATE"
	TagDelete    = "DELETE"
	TagHeartbeat = "HEARTBEAT"
)

// ErrNotArray is returned by ParseSnapshot for a well-formed body that is not an array.
var ErrNotArray = errors.New("snapshot is not an array")

// DecodeVehicle converts a raw snapshot record into a Vehicle.
func DecodeVehicle(raw any) (model.Vehicle, bool) {
	rec, ok := raw.(map[string]any)
	if !ok {
		return model.Vehicle{}, false
	}

	id, ok := coerceField(rec, CoerceID, "Id", "id")
	if !ok {
		return model.Vehicle{}, false
	}
	owner, ok := coerceField(rec, CoerceID, "OwnerId", "ownerId")
	if !ok {
		return model.Vehicle{}, false
	}
	name, ok := coerceField(rec, CoerceString, "Name", "name")
	if !ok {
		return model.Vehicle{}, false
	}
	depot, ok := coerceField(rec, CoerceString, "Depot", "depot")
	if !ok {
		return model.Vehicle{}, false
	}

	return model.Vehicle{
		ID:       id,
		OwnerID:  owner,
		Name:     name,
		Depot:    depot,
		Route:    CoerceRoute(lookupValue(rec, "route", "Route")),
		Assigned: CoerceBool(lookupValue(rec, "assigned", "Assigned")),
		Towing:   CoerceBool(lookupValue(rec, "towing", "Towing")),
	}, true
}

// DecodeEvent converts one stream message into an Event.
func DecodeEvent(msg []byte) (model.Event, bool) {
	if len(strings.TrimSpace(string(msg))) == 0 {
		return nil, false
	}

	raw, err := Unmarshal(msg)
	if err != nil {
		return nil, false
	}
	env, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	tag, _ := env["event"].(string)
	data := env["data"]

	switch strings.ToUpper(strings.TrimSpace(tag)) {
	case TagAdd:
		v, ok := DecodeVehicle(data)
		if !ok {
			return nil, false
		}
		return model.AddEvent{Vehicle: v}, true

	case TagUpdate:
		rec, ok := data.(map[string]any)
		if !ok {
			return nil, false
		}
		id, ok := CoerceID(lookupValue(rec, "id", "Id"))
		if !ok {
			return nil, false
		}
		return model.UpdateEvent{ID: id, Patch: decodePatch(rec)}, true

	case TagDelete:
		id, ok := CoerceString(data)
		if !ok {
			return nil, false
		}
		return model.DeleteEvent{ID: id}, true

	case TagHeartbeat:
		return model.HeartbeatEvent{}, true
	}
	return nil, false
}

// ParseSnapshot decodes a snapshot body. Blank bodies are empty rosters and
// invalid records are skipped.
func ParseSnapshot(body []byte) ([]model.Vehicle, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return []model.Vehicle{}, nil
	}

	raw, err := Unmarshal(body)
	if err != nil {
		return nil, err
	}
	list, ok := raw.([]any)
	if !ok {
		return []model.Vehicle{}, ErrNotArray
	}

	vehicles := make([]model.Vehicle, 0, len(list))
	for _, rec := range list {
		if v, ok := DecodeVehicle(rec); ok {
			vehicles = append(vehicles, v)
		}
	}
	return vehicles, nil
}

// DecodeSnapshot is ParseSnapshot with every failure mapped to an empty roster.
func DecodeSnapshot(body []byte) []model.Vehicle {
	vehicles, err := ParseSnapshot(body)
	if err != nil {
		return []model.Vehicle{}
	}
	return vehicles
}

func decodePatch(rec map[string]any) model.VehiclePatch {
	var p model.VehiclePatch
	if r, ok := lookup(rec, "route", "Route"); ok {
		p.HasRoute = true
		p.Route = CoerceRoute(r)
	}
	if a, ok := lookup(rec, "assigned", "Assigned"); ok {
		p.Assigned = model.Bool(CoerceBool(a))
	}
	if t, ok := lookup(rec, "towing", "Towing"); ok {
		p.Towing = model.Bool(CoerceBool(t))
	}
	return p
}

func coerceField(rec map[string]any, coerce func(any) (string, bool), keys ...string) (string, bool) {
	return coerce(lookupValue(rec, keys...))
}
