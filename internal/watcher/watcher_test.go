package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"codegraph/internal/ignore"
)

func startWatcher(t *testing.T, root string, filter *ignore.Filter) *Watcher {
	t.Helper()
	w, err := New(root, filter)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	go w.Run(ctx)
	return w
}

// waitFor drains events until one matches or the deadline passes.
func waitFor(t *testing.T, w *Watcher, path string, op Op) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-w.Events():
			if ev.Path == path && ev.Op == op {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s op=%d", path, op)
		}
	}
}

func TestWatcherSeesWrites(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, ignore.FromPatterns())

	if err := os.WriteFile(filepath.Join(root, "a.ts"), []byte("let x = 1\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "a.ts", OpUpdate)
}

func TestWatcherSeesRemovals(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "gone.ts")
	if err := os.WriteFile(path, []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	w := startWatcher(t, root, ignore.FromPatterns())

	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	waitFor(t, w, "gone.ts", OpRemove)
}

func TestWatcherWatchesNewDirectories(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, ignore.FromPatterns())

	sub := filepath.Join(root, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	// Give the new watch a moment to land before writing into it.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(filepath.Join(sub, "b.ts"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	waitFor(t, w, "sub/b.ts", OpUpdate)
}

func TestWatcherPrunesIgnoredDirectories(t *testing.T) {
	root := t.TempDir()
	skipped := filepath.Join(root, "node_modules")
	if err := os.Mkdir(skipped, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w := startWatcher(t, root, ignore.FromPatterns())

	if err := os.WriteFile(filepath.Join(skipped, "dep.js"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "ok.ts"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// The pruned subtree generates nothing; the first event must be ok.ts.
	select {
	case ev := <-w.Events():
		if ev.Path != "ok.ts" {
			t.Fatalf("unexpected event from ignored subtree: %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for ok.ts")
	}
}

func TestWatcherFiltersIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, ignore.FromPatterns("*.log"))

	if err := os.WriteFile(filepath.Join(root, "app.log"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "app.ts"), []byte("x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-w.Events():
		if ev.Path != "app.ts" {
			t.Fatalf("ignored file leaked through: %+v", ev)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for app.ts")
	}
}
