package model

import "encoding/json"

// Seed is one vehicle of a bulk import. The wire keys are capitalised.
type Seed struct {
	ID      SeedID `json:"Id"`
	OwnerID SeedID `json:"OwnerId"`
	Name    string `json:"Name"`
	Depot   string `json:"Depot"`
}

// SeedID is an import identifier that keeps the JSON type it was read with,
// so numeric ids are sent back as numbers.
type SeedID struct {
	Value   string
	Numeric bool
}

// TextID returns a string SeedID.
func TextID(s string) SeedID { return SeedID{Value: s} }

// NumericID returns a SeedID encoded as a JSON number. n must be a valid JSON number literal.
func NumericID(n string) SeedID { return SeedID{Value: n, Numeric: true} }

func (id SeedID) String() string { return id.Value }

// MarshalJSON implements json.Marshaler.
func (id SeedID) MarshalJSON() ([]byte, error) {
	if id.Numeric {
		return []byte(id.Value), nil
	}
	return json.Marshal(id.Value)
}

// UnmarshalJSON implements json.Unmarshaler.
func (id *SeedID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = TextID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = NumericID(n.String())
	return nil
}
