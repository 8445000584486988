// Package archive periodically exports the roster of the selected room to
// object storage.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/internal/dispatch/core"
	"github.com/autopeer-io/dispatch/internal/dispatch/core/model"
	"github.com/autopeer-io/dispatch/internal/pkg/metrics"
	"github.com/autopeer-io/dispatch/pkg/log"
)

// LatestName is the object name of the most recent export of a room.
const LatestName = "latest.json"

const timestampLayout = "20060102T150405Z"

// Source is the session being archived.
type Source interface {
	Status() model.Status
	Vehicles() []model.Vehicle
	Watch() (<-chan struct{}, func())
}

// Export is the archived document.
type Export struct {
	Room       string          `json:"room"`
	ExportedAt time.Time       `json:"exportedAt"`
	Status     model.Status    `json:"status"`
	Vehicles   []model.Vehicle `json:"vehicles"`
}

// Exporter writes an Export of Source on every tick when the roster changed.
type Exporter struct {
	store    core.Archiver
	src      Source
	clock    clock.WithTicker
	interval time.Duration
	prefix   string
	log      log.Logger
}

// NewExporter creates an Exporter. A nil clock means the real clock.
func NewExporter(store core.Archiver, src Source, interval time.Duration, prefix string, clk clock.WithTicker, logger log.Logger) *Exporter {
	if clk == nil {
		clk = clock.RealClock{}
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Exporter{
		store:    store,
		src:      src,
		clock:    clk,
		interval: interval,
		prefix:   strings.Trim(prefix, "/"),
		log:      logger,
	}
}

// LatestKey returns the key of the most recent export of room.
func LatestKey(prefix, room string) string {
	return path.Join(strings.Trim(prefix, "/"), room, LatestName)
}

// Run exports until ctx is done.
func (e *Exporter) Run(ctx context.Context) error {
	changes, cancel := e.src.Watch()
	defer cancel()

	ticker := e.clock.NewTicker(e.interval)
	defer ticker.Stop()

	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			dirty = true
		case <-ticker.C():
			if !dirty {
				continue
			}
			if err := e.Export(ctx); err != nil {
				e.log.Error(err, "Failed to archive roster")
				continue
			}
			dirty = false
		}
	}
}

// Export uploads the current roster as a timestamped object and as the latest
// object of the room. Nothing is written while no room is selected.
func (e *Exporter) Export(ctx context.Context) error {
	st := e.src.Status()
	if st.Room == "" {
		return nil
	}

	now := e.clock.Now().UTC()
	vehicles := e.src.Vehicles()
	payload, err := json.Marshal(Export{
		Room:       st.Room,
		ExportedAt: now,
		Status:     st,
		Vehicles:   vehicles,
	})
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	keys := []string{
		path.Join(e.prefix, st.Room, now.Format(timestampLayout)+".json"),
		LatestKey(e.prefix, st.Room),
	}
	for _, key := range keys {
		err := e.store.Put(ctx, key, payload)
		metrics.ArchiveUploads.WithLabelValues(metrics.Status(err)).Inc()
		if err != nil {
			return err
		}
	}
	e.log.Debug("Archived roster", "room", st.Room, "vehicles", len(vehicles), "key", keys[0])
	return nil
}
