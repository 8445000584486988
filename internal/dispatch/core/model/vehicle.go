package model

// Vehicle is one entry of a room roster.
// ID, OwnerID, Name and Depot are non-empty and never change once the vehicle exists.
type Vehicle struct {
	ID      string  `json:"id"`
	OwnerID string  `json:"ownerId"`
	Name    string  `json:"name"`
	Depot   string  `json:"depot"`
	Route   *string `json:"route"`

	Assigned bool `json:"assigned"`
	Towing   bool `json:"towing"`
}

// RouteValue returns the route or "" when none is set.
func (v Vehicle) RouteValue() string {
	if v.Route == nil {
		return ""
	}
	return *v.Route
}

// Equal reports whether v and o hold the same values.
func (v Vehicle) Equal(o Vehicle) bool {
	return v.ID == o.ID &&
		v.OwnerID == o.OwnerID &&
		v.Name == o.Name &&
		v.Depot == o.Depot &&
		equalString(v.Route, o.Route) &&
		v.Assigned == o.Assigned &&
		v.Towing == o.Towing
}

// VehiclePatch holds the mutable fields of a partial update. A nil field is
// left untouched; HasRoute with a nil Route clears the route.
type VehiclePatch struct {
	Route    *string
	HasRoute bool
	Assigned *bool
	Towing   *bool
}

// Empty reports whether the patch carries no field.
func (p VehiclePatch) Empty() bool {
	return !p.HasRoute && p.Assigned == nil && p.Towing == nil
}

// Apply returns v with the present fields of p merged in.
func (p VehiclePatch) Apply(v Vehicle) Vehicle {
	if p.HasRoute {
		v.Route = cloneString(p.Route)
	}
	if p.Assigned != nil {
		v.Assigned = *p.Assigned
	}
	if p.Towing != nil {
		v.Towing = *p.Towing
	}
	return v
}

// ChangesFrom reports whether applying p to v would change any field.
func (p VehiclePatch) ChangesFrom(v Vehicle) bool {
	if p.HasRoute && !equalString(p.Route, v.Route) {
		return true
	}
	if p.Assigned != nil && *p.Assigned != v.Assigned {
		return true
	}
	if p.Towing != nil && *p.Towing != v.Towing {
		return true
	}
	return false
}

// Inverse returns the patch restoring the fields p touches to their values in v.
func (p VehiclePatch) Inverse(v Vehicle) VehiclePatch {
	var inv VehiclePatch
	if p.HasRoute {
		inv.HasRoute = true
		inv.Route = cloneString(v.Route)
	}
	if p.Assigned != nil {
		inv.Assigned = Bool(v.Assigned)
	}
	if p.Towing != nil {
		inv.Towing = Bool(v.Towing)
	}
	return inv
}

// MarshalFields renders the present fields as a request body; a cleared route is null.
func (p VehiclePatch) MarshalFields() map[string]any {
	body := make(map[string]any, 3)
	if p.HasRoute {
		if p.Route == nil {
			body["route"] = nil
		} else {
			body["route"] = *p.Route
		}
	}
	if p.Assigned != nil {
		body["assigned"] = *p.Assigned
	}
	if p.Towing != nil {
		body["towing"] = *p.Towing
	}
	return body
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
