package store

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// Sorted returns the vehicles of entries ordered by name then id, ignoring
// case and accents. Byte order breaks remaining ties so the order is total.
func Sorted(entries map[string]model.Vehicle) []model.Vehicle {
	out := make([]model.Vehicle, 0, len(entries))
	for _, v := range entries {
		out = append(out, v)
	}
	SortVehicles(out)
	return out
}

// SortVehicles sorts vs in display order.
func SortVehicles(vs []model.Vehicle) {
	// Collators are not safe for concurrent use.
	c := collate.New(language.Und, collate.Loose)
	sort.Slice(vs, func(i, j int) bool {
		return lessVehicle(c, vs[i], vs[j])
	})
}

func lessVehicle(c *collate.Collator, a, b model.Vehicle) bool {
	if r := c.CompareString(a.Name, b.Name); r != 0 {
		return r < 0
	}
	if r := c.CompareString(a.ID, b.ID); r != 0 {
		return r < 0
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.ID < b.ID
}
