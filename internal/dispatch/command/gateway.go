// Package command applies roster mutations optimistically ahead of the
// confirmation of the dispatch service.
package command

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/dispatch/remote"
	"github.com/autopeer-io/dispatch/internal/dispatch/snapshot"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
	"github.com/autopeer-io/dispatch/pkg/log"
)

const (
	opUpdate = "update"
	opDelete = "delete"
	opImport = "import"
)

// Refresher reloads the roster of a room for a store epoch.
type Refresher interface {
	LoadAt(ctx context.Context, room string, epoch uint64) error
}

// Gateway sends roster mutations to the dispatch service.
type Gateway struct {
	api     core.RosterAPI
	store   *store.Store
	refresh Refresher
	clock   clock.PassiveClock
	log     log.Logger

	// mu orders optimistic writes and rollbacks against the edit sequence.
	mu     sync.Mutex
	seq    uint64
	latest map[string]uint64
}

// NewGateway creates a Gateway. refresh may be nil.
func NewGateway(api core.RosterAPI, s *store.Store, refresh Refresher, logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Gateway{
		api:     api,
		store:   s,
		refresh: refresh,
		clock:   clock.RealClock{},
		log:     logger,
		latest:  make(map[string]uint64),
	}
}

// Patch applies patch to vehicle id at the current store epoch.
func (g *Gateway) Patch(ctx context.Context, room, id string, patch model.VehiclePatch) error {
	return g.PatchAt(ctx, room, g.store.Epoch(), id, patch)
}

// PatchAt applies patch to vehicle id and sends it. A patch that changes nothing
// sends no request. It fails with ErrRoomChanged when the store has left epoch.
// On failure the patched fields are restored unless a newer edit of the same
// vehicle or a room change superseded this one.
func (g *Gateway) PatchAt(ctx context.Context, room string, epoch uint64, id string, patch model.VehiclePatch) error {
	if room == "" {
		return ErrNoRoom
	}

	g.mu.Lock()
	current, cur, ok := g.store.GetWithEpoch(id)
	if cur != epoch {
		g.mu.Unlock()
		return ErrRoomChanged
	}
	if !ok {
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	if !patch.ChangesFrom(current) {
		g.mu.Unlock()
		return nil
	}
	inverse := patch.Inverse(current)
	g.seq++
	seq := g.seq
	g.latest[id] = seq
	g.store.DispatchIf(epoch, store.Patch{ID: id, Patch: patch})
	g.mu.Unlock()

	err := g.observe(opUpdate, func() error {
		return g.api.PatchVehicle(ctx, room, id, patch)
	})

	g.mu.Lock()
	defer g.mu.Unlock()
	superseded := g.latest[id] != seq
	if !superseded {
		delete(g.latest, id)
	}
	if err == nil {
		return nil
	}

	if superseded {
		g.log.Debug("Skipping rollback of superseded edit", "room", room, "vehicle", id)
	} else if g.store.DispatchIf(epoch, store.Patch{ID: id, Patch: inverse}) {
		metrics.Rollbacks.Inc()
		g.log.Warn("Rolled back vehicle edit", "room", room, "vehicle", id)
	}
	return &MutationError{Op: opUpdate, ID: id, Err: err}
}

// Delete removes vehicle id at the current store epoch.
func (g *Gateway) Delete(ctx context.Context, room, id string) error {
	return g.DeleteAt(ctx, room, g.store.Epoch(), id)
}

// DeleteAt removes vehicle id. It fails with ErrRoomChanged when the store has
// left epoch. A vehicle the service no longer knows counts as deleted.
// The local entry is not restored on failure.
func (g *Gateway) DeleteAt(ctx context.Context, room string, epoch uint64, id string) error {
	if room == "" {
		return ErrNoRoom
	}

	g.mu.Lock()
	if g.store.Epoch() != epoch {
		g.mu.Unlock()
		return ErrRoomChanged
	}
	delete(g.latest, id)
	g.store.DispatchIf(epoch, store.Remove{ID: id})
	g.mu.Unlock()

	err := g.observe(opDelete, func() error {
		err := g.api.DeleteVehicle(ctx, room, id)
		if remote.IsNotFound(err) {
			return nil
		}
		return err
	})
	if err != nil {
		return &MutationError{Op: opDelete, ID: id, Err: err}
	}
	return nil
}

// Import creates seeds in room at the current store epoch.
func (g *Gateway) Import(ctx context.Context, room string, seeds []model.Seed) (string, error) {
	return g.ImportAt(ctx, room, g.store.Epoch(), seeds)
}

// ImportAt validates and creates seeds in room, then reloads the roster of
// epoch. The reload is skipped once the store has left epoch. It returns the
// message to show on success.
func (g *Gateway) ImportAt(ctx context.Context, room string, epoch uint64, seeds []model.Seed) (string, error) {
	if room == "" {
		return "", ErrNoRoom
	}
	if err := ValidateSeeds(seeds); err != nil {
		return "", err
	}
	if g.store.Epoch() != epoch {
		return "", ErrRoomChanged
	}

	err := g.observe(opImport, func() error {
		return g.api.ImportVehicles(ctx, room, seeds)
	})
	if err != nil {
		return "", &MutationError{Op: opImport, Err: err}
	}
	g.log.Info("Imported vehicles", "room", room, "count", len(seeds))

	if g.refresh != nil {
		err := g.refresh.LoadAt(ctx, room, epoch)
		switch {
		case errors.Is(err, snapshot.ErrStale):
			g.log.Debug("Skipping roster refresh of a deselected room", "room", room)
		case err != nil:
			g.log.Warn("Roster refresh after import failed", "room", room, "error", err)
		}
	}
	return fmt.Sprintf("Imported %d vehicles. Live updates will appear as they sync.", len(seeds)), nil
}

func (g *Gateway) observe(op string, call func() error) error {
	start := g.clock.Now()
	err := call()
	metrics.CommandLatency.WithLabelValues(opLabel(op)).Observe(g.clock.Since(start).Seconds())
	metrics.CommandsTotal.WithLabelValues(opLabel(op), metrics.Status(err)).Inc()
	return err
}

// opLabel maps an operation to its metric label.
func opLabel(op string) string {
	if op == opUpdate {
		return "patch"
	}
	return op
}
