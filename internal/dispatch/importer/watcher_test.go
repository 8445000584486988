package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recorder) importFn(_ context.Context, data []byte) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return "", r.err
	}
	r.calls = append(r.calls, string(data))
	return "imported", nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func TestImportOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.json")
	rec := &recorder{}
	w := NewWatcher(path, time.Millisecond, rec.importFn, nil)

	if err := w.ImportOnce(context.Background()); err == nil {
		t.Fatal("ImportOnce() of a missing file succeeded")
	}

	os.WriteFile(path, []byte(`[1]`), 0o600)
	if err := w.ImportOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := w.ImportOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := rec.count(); n != 1 {
		t.Errorf("imports = %d, want unchanged content imported once", n)
	}

	os.WriteFile(path, []byte(`[2]`), 0o600)
	w.ImportOnce(context.Background())
	if n := rec.count(); n != 2 {
		t.Errorf("imports = %d, want 2", n)
	}
}

func TestImportOnceRetriesAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seeds.json")
	os.WriteFile(path, []byte(`[1]`), 0o600)
	rec := &recorder{err: errors.New("no room selected")}
	w := NewWatcher(path, time.Millisecond, rec.importFn, nil)

	if err := w.ImportOnce(context.Background()); err == nil {
		t.Fatal("ImportOnce() error = nil")
	}
	rec.err = nil
	if err := w.ImportOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := rec.count(); n != 1 {
		t.Errorf("imports = %d, want 1", n)
	}
}

func TestRunImportsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seeds.json")
	rec := &recorder{}
	w := NewWatcher(path, 20*time.Millisecond, rec.importFn, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	// Writes to other files are ignored. Keep writing until the watcher is up.
	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for import")
		}
		os.WriteFile(filepath.Join(dir, "other.json"), []byte(`x`), 0o600)
		os.WriteFile(path, []byte(`[{"Id":"1"}]`), 0o600)
		time.Sleep(50 * time.Millisecond)
	}

	rec.mu.Lock()
	got := rec.calls[0]
	rec.mu.Unlock()
	if got != `[{"Id":"1"}]` {
		t.Errorf("imported %q", got)
	}
}
