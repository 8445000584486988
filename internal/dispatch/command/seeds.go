package command

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/envelope"
)

var (
	errNotArray = &ValidationError{Msg: "The provided JSON must be an array of vehicles."}
	errNoSeeds  = &ValidationError{Msg: "No vehicles found in the provided JSON."}
)

// ParseSeeds validates a bulk import payload. Every entry must be an object
// carrying Id, OwnerId, Name and Depot, with lowercase keys as fallback.
func ParseSeeds(data []byte) ([]model.Seed, error) {
	doc, err := envelope.Unmarshal(data)
	if err != nil {
		return nil, &ValidationError{Msg: "The provided JSON is invalid: " + err.Error(), Err: err}
	}
	entries, ok := doc.([]any)
	if !ok {
		return nil, errNotArray
	}

	seeds := make([]model.Seed, 0, len(entries))
	for i, entry := range entries {
		rec, ok := entry.(map[string]any)
		if !ok {
			return nil, &ValidationError{Msg: fmt.Sprintf("Vehicle #%d is not an object.", i+1)}
		}

		id, okID := seedID(first(rec, "Id", "id"))
		owner, okOwner := seedID(first(rec, "OwnerId", "ownerId"))
		name := textField(rec, "Name", "name")
		depot := textField(rec, "Depot", "depot")
		if !okID || !okOwner || name == "" || depot == "" {
			return nil, &ValidationError{Msg: fmt.Sprintf("Vehicle #%d is missing Id, OwnerId, Name, or Depot.", i+1)}
		}

		seeds = append(seeds, model.Seed{ID: id, OwnerID: owner, Name: name, Depot: depot})
	}

	if err := ValidateSeeds(seeds); err != nil {
		return nil, err
	}
	return seeds, nil
}

// ValidateSeeds checks seeds built by a caller before they are sent. Ids must
// be set and numeric ids must be JSON number literals.
func ValidateSeeds(seeds []model.Seed) error {
	if len(seeds) == 0 {
		return errNoSeeds
	}
	for i, seed := range seeds {
		if !validID(seed.ID) || !validID(seed.OwnerID) || seed.Name == "" || seed.Depot == "" {
			return &ValidationError{Msg: fmt.Sprintf("Vehicle #%d is missing Id, OwnerId, Name, or Depot.", i+1)}
		}
	}
	return nil
}

func validID(id model.SeedID) bool {
	if id.Value == "" {
		return false
	}
	if !id.Numeric {
		return true
	}
	dec := json.NewDecoder(strings.NewReader(id.Value))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return false
	}
	_, ok := v.(json.Number)
	return ok && !dec.More()
}

// first returns the value of the first key that is present and not null.
func first(rec map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := rec[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// textField returns the first key holding a string. An empty string is kept and
// does not fall back.
func textField(rec map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok {
			return s
		}
	}
	return ""
}

func seedID(v any) (model.SeedID, bool) {
	switch x := v.(type) {
	case string:
		return model.TextID(x), x != ""
	case json.Number:
		return model.NumericID(x.String()), true
	}
	return model.SeedID{}, false
}
