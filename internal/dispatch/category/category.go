// Package category buckets vehicles by name for display.
package category

import (
	"regexp"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// Category is a display bucket.
type Category string

const (
	Service    Category = "service"
	Staff      Category = "staff"
	Trolleybus Category = "trolleybus"
	Other      Category = "other"
)

var order = []Category{Service, Staff, Trolleybus, Other}

var labels = map[Category]string{
	Service:    "Service Vehicles",
	Staff:      "Staff Vehicles",
	Trolleybus: "Trolleybuses",
	Other:      "Other Vehicles",
}

var descriptions = map[Category]string{
	Service:    "Support and utility equipment that often coordinate recoveries.",
	Staff:      "Staff mobility and escort units.",
	Trolleybus: "Revenue vehicles requiring quick routing.",
	Other:      "Everything else that still needs tracking.",
}

type rule struct {
	match    *regexp.Regexp
	category Category
}

// overrides take precedence over every keyword rule.
var overrides = []rule{
	{regexp.MustCompile(`(?i)^ziu-682`), Service},
	{regexp.MustCompile(`(?i)sputnik`), Staff},
}

// keywords are evaluated in order; the first matching category wins.
var keywords = []rule{
	{regexp.MustCompile(`(?i)service|maintenance|support|rescue|utility`), Service},
	{regexp.MustCompile(`(?i)staff|escort|vaz|sedan|sputnik`), Staff},
	{regexp.MustCompile(`(?i)trolley|bus|ziu|ziú`), Trolleybus},
}

// Order returns the categories in display order.
func Order() []Category {
	return append([]Category(nil), order...)
}

// Label returns the heading of c.
func (c Category) Label() string {
	if l, ok := labels[c]; ok {
		return l
	}
	return labels[Other]
}

// Description returns the short explanation shown under the heading of c.
func (c Category) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return descriptions[Other]
}

// Classify maps a vehicle name to its category.
func Classify(name string) Category {
	if name == "" {
		return Other
	}
	for _, r := range overrides {
		if r.match.MatchString(name) {
			return r.category
		}
	}
	for _, r := range keywords {
		if r.match.MatchString(name) {
			return r.category
		}
	}
	return Other
}

// Group is one bucket of a grouped roster.
type Group struct {
	Category    Category        `json:"category"`
	Label       string          `json:"label"`
	Description string          `json:"description"`
	Vehicles    []model.Vehicle `json:"vehicles"`
}

// GroupVehicles partitions vehicles by category, in display order, each bucket
// sorted by depot then id ignoring case and accents. Every category is present.
func GroupVehicles(vehicles []model.Vehicle) []Group {
	buckets := make(map[Category][]model.Vehicle, len(order))
	for _, v := range vehicles {
		c := Classify(v.Name)
		buckets[c] = append(buckets[c], v)
	}

	coll := collate.New(language.Und, collate.Loose)
	groups := make([]Group, 0, len(order))
	for _, c := range order {
		vs := buckets[c]
		if vs == nil {
			vs = []model.Vehicle{}
		}
		sort.SliceStable(vs, func(i, j int) bool {
			return lessByDepot(coll, vs[i], vs[j])
		})
		groups = append(groups, Group{
			Category:    c,
			Label:       c.Label(),
			Description: c.Description(),
			Vehicles:    vs,
		})
	}
	return groups
}

func lessByDepot(c *collate.Collator, a, b model.Vehicle) bool {
	if r := c.CompareString(a.Depot, b.Depot); r != 0 {
		return r < 0
	}
	if r := c.CompareString(a.ID, b.ID); r != 0 {
		return r < 0
	}
	if a.Depot != b.Depot {
		return a.Depot < b.Depot
	}
	return a.ID < b.ID
}
