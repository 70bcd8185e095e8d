// Package watcher turns fsnotify events into workspace-relative change
// notifications. Watches are recursive: every non-ignored directory under the
// root gets its own watch, and directories created later are added on the fly.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"codegraph/internal/ignore"
)

// Op classifies a change for the indexer: the path now has content worth
// (re-)indexing, or it is gone.
type Op int

const (
	OpUpdate Op = iota
	OpRemove
)

// Event is one file change, with Path relative to the workspace root in
// slash form.
type Event struct {
	Path string
	Op   Op
}

type Watcher struct {
	root   string
	filter *ignore.Filter
	fs     *fsnotify.Watcher
	events chan Event
}

// New starts watching root and every non-ignored directory beneath it.
// Ignored subtrees are pruned at watch time, so events inside them are never
// generated at all.
func New(root string, filter *ignore.Filter) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:   root,
		filter: filter,
		fs:     fsw,
		events: make(chan Event, 256),
	}
	if err := w.addRecursive(root); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// Events is the channel change notifications arrive on. It closes when Run
// returns.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Close stops the underlying watcher, which unblocks Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run forwards events until ctx ends or the watcher closes.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch.error", "err", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	switch {
	case ev.Op.Has(fsnotify.Create):
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if w.filter.ShouldIgnoreDirectory(rel) {
				return
			}
			// A directory moved into the workspace arrives as one Create;
			// watch it and surface the files already inside.
			w.addTree(ctx, ev.Name)
			return
		}
		w.send(ctx, rel, OpUpdate)
	case ev.Op.Has(fsnotify.Write):
		w.send(ctx, rel, OpUpdate)
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.send(ctx, rel, OpRemove)
	}
}

func (w *Watcher) send(ctx context.Context, rel string, op Op) {
	if w.filter.ShouldIgnore(rel) {
		return
	}
	select {
	case w.events <- Event{Path: rel, Op: op}:
	case <-ctx.Done():
	}
}

// addRecursive watches dir and its non-ignored subdirectories.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, keep going
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		if rel != "." && w.filter.ShouldIgnoreDirectory(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			slog.Warn("watch.add", "path", path, "err", err)
		}
		return nil
	})
}

// addTree watches a newly created directory and emits update events for the
// files it already contains.
func (w *Watcher) addTree(ctx context.Context, dir string) {
	if err := w.addRecursive(dir); err != nil {
		slog.Warn("watch.add_tree", "path", dir, "err", err)
	}
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, path)
		if relErr != nil {
			return nil
		}
		w.send(ctx, filepath.ToSlash(rel), OpUpdate)
		return nil
	})
}
