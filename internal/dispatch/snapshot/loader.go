// Package snapshot bootstraps a room roster from the dispatch service.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/envelope"
	"github.com/autopeer-io/dispatch/internal/dispatch/store"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// ErrStale is returned by Load when a newer load, an invalidation or a store
// reset happened while the request was in flight. The response is discarded.
var ErrStale = errors.New("snapshot superseded by a newer load")

// Loader fetches room snapshots and replaces the store contents with them.
// Only the most recently started Load of the newest store epoch may write to
// the store.
type Loader struct {
	api   core.RosterAPI
	store *store.Store
	log   log.Logger

	mu    sync.Mutex
	gen   uint64
	epoch uint64
}

// NewLoader creates a Loader writing into s.
func NewLoader(api core.RosterAPI, s *store.Store, logger log.Logger) *Loader {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Loader{api: api, store: s, log: logger}
}

// Load fetches the snapshot of room for the current store epoch.
func (l *Loader) Load(ctx context.Context, room string) error {
	return l.LoadAt(ctx, room, l.store.Epoch())
}

// LoadAt fetches the snapshot of room and dispatches it as a Replace guarded
// by epoch. A load for an epoch older than one already started returns
// ErrStale without a request. On failure the store keeps its contents.
func (l *Loader) LoadAt(ctx context.Context, room string, epoch uint64) error {
	gen, ok := l.begin(epoch)
	if !ok || l.store.Epoch() != epoch {
		metrics.SnapshotLoads.WithLabelValues("stale").Inc()
		l.log.Debug("Skipping snapshot of a past room selection", "room", room, "epoch", epoch)
		return ErrStale
	}

	body, err := l.api.FetchRoster(ctx, room)
	if err != nil {
		metrics.SnapshotLoads.WithLabelValues("failed").Inc()
		if l.Current() != gen {
			return ErrStale
		}
		return fmt.Errorf("load snapshot of room %s: %w", room, err)
	}

	vehicles, err := envelope.ParseSnapshot(body)
	switch {
	case errors.Is(err, envelope.ErrNotArray):
		l.log.Warn("Snapshot body is not an array, treating as empty", "room", room)
	case err != nil:
		metrics.SnapshotLoads.WithLabelValues("failed").Inc()
		return fmt.Errorf("decode snapshot of room %s: %w", room, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gen != gen {
		metrics.SnapshotLoads.WithLabelValues("stale").Inc()
		l.log.Debug("Dropping stale snapshot", "room", room, "generation", gen)
		return ErrStale
	}
	if !l.store.DispatchIf(epoch, store.Replace{Vehicles: vehicles}) && l.store.Epoch() != epoch {
		metrics.SnapshotLoads.WithLabelValues("stale").Inc()
		l.log.Debug("Dropping snapshot of a past room selection", "room", room, "epoch", epoch)
		return ErrStale
	}

	metrics.SnapshotLoads.WithLabelValues("success").Inc()
	l.log.Info("Snapshot loaded", "room", room, "vehicles", len(vehicles))
	return nil
}

// Invalidate makes every in-flight Load stale.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
}

// Current returns the generation of the latest Load or Invalidate.
func (l *Loader) Current() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gen
}

// begin starts a generation for epoch. It refuses epochs older than the
// newest one seen so a late load cannot supersede a newer selection.
func (l *Loader) begin(epoch uint64) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if epoch < l.epoch {
		return l.gen, false
	}
	l.epoch = epoch
	l.gen++
	return l.gen, true
}
