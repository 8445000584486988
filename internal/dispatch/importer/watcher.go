// Package importer re-imports a vehicle seed file into the selected room
// whenever the file changes.
package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/dispatch/pkg/log"
)

// ImportFunc imports the raw JSON seed array and returns the success message.
type ImportFunc func(ctx context.Context, data []byte) (string, error)

// Watcher imports a seed file after it settles for the debounce interval.
// Identical content is imported once.
type Watcher struct {
	path     string
	debounce time.Duration
	importFn ImportFunc
	clock    clock.Clock
	log      log.Logger

	last []byte
}

// NewWatcher creates a Watcher for path.
func NewWatcher(path string, debounce time.Duration, fn ImportFunc, logger log.Logger) *Watcher {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		importFn: fn,
		clock:    clock.RealClock{},
		log:      logger,
	}
}

// Run watches the file until ctx is done. The parent directory is watched so
// that editors replacing the file are seen.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.log.Info("Watching seed file", "path", w.path)

	var (
		timer clock.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = w.clock.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C():
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C()

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("Seed file watcher error", "path", w.path, "error", err)

		case <-fire:
			fire = nil
			if err := w.ImportOnce(ctx); err != nil {
				w.log.Error(err, "Failed to import seed file", "path", w.path)
			}
		}
	}
}

// ImportOnce reads the file and imports it unless its content was already imported.
func (w *Watcher) ImportOnce(ctx context.Context) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}

	sum := sha256.Sum256(data)
	if bytes.Equal(sum[:], w.last) {
		w.log.Debug("Seed file unchanged, skipping import", "path", w.path)
		return nil
	}

	msg, err := w.importFn(ctx, data)
	if err != nil {
		return err
	}
	w.last = sum[:]
	w.log.Info(msg, "path", w.path)
	return nil
}
