package service

import (
	"context"
	"strings"

	"github.com/autopeer-io/dispatch/internal/dispatch/category"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
)

// Vehicles returns the roster in display order.
func (s *Service) Vehicles() []model.Vehicle {
	return s.store.Vehicles()
}

// Search returns the vehicles matching query in display order. Owner profiles
// are only resolved for a non-empty query.
func (s *Service) Search(ctx context.Context, query string) []model.Vehicle {
	vehicles := s.store.Vehicles()
	if strings.TrimSpace(query) == "" {
		return vehicles
	}
	return Filter(vehicles, s.profiles.Resolve(ctx, OwnerIDs(vehicles)), query)
}

// Filter keeps the vehicles matching query, preserving their order. The query
// is trimmed and matched case-insensitively against the id, name, depot, route
// and the owner's display name and username. An empty query matches all.
func Filter(vehicles []model.Vehicle, owners map[string]*model.Profile, query string) []model.Vehicle {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return vehicles
	}

	out := make([]model.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if matches(v, owners[v.OwnerID], q) {
			out = append(out, v)
		}
	}
	return out
}

// Groups returns the vehicles matching query bucketed by category.
func (s *Service) Groups(ctx context.Context, query string) []category.Group {
	return category.GroupVehicles(s.Search(ctx, query))
}

// Owners resolves the profiles of the owners of vehicles, keyed by user id.
// Owners without a profile are absent.
func (s *Service) Owners(ctx context.Context, vehicles []model.Vehicle) map[string]*model.Profile {
	return s.profiles.Resolve(ctx, OwnerIDs(vehicles))
}

func matches(v model.Vehicle, owner *model.Profile, q string) bool {
	fields := []string{v.ID, v.Name, v.Depot, v.RouteValue()}
	if owner != nil {
		fields = append(fields, owner.DisplayName, owner.Username)
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// OwnerIDs lists the owner of every vehicle, duplicates included.
func OwnerIDs(vehicles []model.Vehicle) []string {
	ids := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		ids = append(ids, v.OwnerID)
	}
	return ids
}
