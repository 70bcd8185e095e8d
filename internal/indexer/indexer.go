// Package indexer keeps the stored symbol graph in sync with the workspace:
// a two-pass full index at startup, then debounced incremental re-indexing
// driven by watch events.
//
// All graph mutations happen on the goroutine running FullIndex and Run; the
// per-file transaction is the only boundary readers ever observe.
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/ignore"
	"codegraph/internal/lang"
	"codegraph/internal/parser"
	"codegraph/internal/store"
	"codegraph/internal/watcher"
)

type Indexer struct {
	root   string
	store  *store.Store
	filter *ignore.Filter
	cfg    *config.Config
	refs   *refIndex
}

func New(root string, s *store.Store, filter *ignore.Filter, cfg *config.Config) *Indexer {
	return &Indexer{
		root:   root,
		store:  s,
		filter: filter,
		cfg:    cfg,
		refs:   newRefIndex(),
	}
}

// parsed is one file's pass-1 output awaiting commit. skipped marks a file
// whose stored hash matched: its rows stay untouched, but its references
// still seed the in-memory reverse index.
type parsed struct {
	path    string
	hash    string
	res     *graph.ParseResult
	skipped bool
}

// FullIndex runs the two-pass workspace index. Pass 1 parses in bounded
// parallel batches and commits node sets only; pass 2 resolves every held
// reference list against the complete node index and commits edges. The edge
// set is identical regardless of discovery order.
func (ix *Indexer) FullIndex(ctx context.Context) error {
	started := time.Now()
	paths, err := Discover(ix.root, ix.filter)
	if err != nil {
		return err
	}
	slog.Info("index.start", "files", len(paths))

	batchSize := ix.cfg.EffectiveBatchSize()
	delay := ix.cfg.EffectiveBatchDelay()

	var indexed []string
	for start := 0; start < len(paths); start += batchSize {
		end := min(start+batchSize, len(paths))
		batch, err := ix.parseBatch(ctx, paths[start:end])
		if err != nil {
			return err
		}
		for _, p := range batch {
			if p.skipped {
				ix.refs.set(p.path, newFileRefs(p.res))
				continue
			}
			if err := ix.commitNodes(ctx, p); err != nil {
				slog.Warn("index.commit_fail", "path", p.path, "err", err)
				continue
			}
			ix.refs.set(p.path, newFileRefs(p.res))
			indexed = append(indexed, p.path)
		}
		if end < len(paths) && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	for _, p := range indexed {
		if err := ix.commitEdges(ctx, p); err != nil {
			slog.Warn("index.resolve_fail", "path", p, "err", err)
			continue
		}
		ix.store.Publish(graph.ChangeEvent{Type: graph.FileIndexed, Path: p})
	}

	symbols, _ := ix.store.CountSymbols(ctx)
	edges, _ := ix.store.CountEdges(ctx)
	slog.Info("index.done",
		"files", len(indexed),
		"symbols", symbols,
		"edges", edges,
		"elapsed", time.Since(started).Round(time.Millisecond))
	return nil
}

// parseBatch parses a slice of paths with bounded parallelism. Files whose
// content hash matches the stored one skip the store write but are still
// parsed, so the reverse reference index is complete after a restart against
// a persisted database. Per-file read and parse failures are isolated, never
// failing the batch.
func (ix *Indexer) parseBatch(ctx context.Context, batch []string) ([]*parsed, error) {
	results := make([]*parsed, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.cfg.EffectiveMaxCPU())
	for i, p := range batch {
		g.Go(func() error {
			content, err := readFile(ix.root, p)
			if err != nil {
				slog.Warn("index.read_fail", "path", p, "err", err)
				return nil
			}
			hash := hashContent(content)
			existing, err := ix.store.FileByPath(gctx, p)
			if err != nil {
				return err
			}
			res, err := parser.Parse(p, content)
			if err != nil || res == nil {
				return nil
			}
			results[i] = &parsed{
				path:    p,
				hash:    hash,
				res:     res,
				skipped: existing != nil && existing.Hash == hash,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := results[:0]
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (ix *Indexer) commitNodes(ctx context.Context, p *parsed) error {
	return ix.store.WithTransaction(ctx, func(tx *store.Store) error {
		if err := tx.UpsertFile(ctx, fileRecord(p.path, p.hash)); err != nil {
			return err
		}
		_, err := tx.ReplaceSymbolsForFile(ctx, p.path, p.res.Symbols)
		return err
	})
}

// commitEdges re-resolves a file's held references and swaps its outgoing
// edge set in one transaction. References not in memory (the file was indexed
// by an earlier run and hash-skipped since) are recovered by re-parsing.
func (ix *Indexer) commitEdges(ctx context.Context, path string) error {
	refs := ix.loadRefs(path)
	if refs == nil {
		return nil
	}
	return ix.store.WithTransaction(ctx, func(tx *store.Store) error {
		if err := tx.DeleteEdgesFromFile(ctx, path); err != nil {
			return err
		}
		edges, err := newResolver(ctx, tx).resolveFile(path, refs)
		if err != nil {
			return err
		}
		return tx.InsertEdges(ctx, edges)
	})
}

// ReindexFile re-parses one file and atomically replaces its slice of the
// graph: file row, symbol set, and resolved edges commit together or not at
// all. Files elsewhere that referenced a name appearing or disappearing here
// are re-resolved afterwards.
func (ix *Indexer) ReindexFile(ctx context.Context, rel string) error {
	if ix.filter.ShouldIgnore(rel) || lang.ForPath(rel) == nil {
		return nil
	}
	content, err := readFile(ix.root, rel)
	if errors.Is(err, fs.ErrNotExist) {
		return ix.RemoveFile(ctx, rel)
	}
	if err != nil {
		return err
	}

	hash := hashContent(content)
	existing, err := ix.store.FileByPath(ctx, rel)
	if err != nil {
		return err
	}
	if existing != nil && existing.Hash == hash {
		return nil
	}

	res, err := parser.Parse(rel, content)
	if err != nil || res == nil {
		return err
	}
	oldSymbols, err := ix.store.SymbolsForFile(ctx, rel)
	if err != nil {
		return err
	}

	refs := newFileRefs(res)
	err = ix.store.WithTransaction(ctx, func(tx *store.Store) error {
		if err := tx.UpsertFile(ctx, fileRecord(rel, hash)); err != nil {
			return err
		}
		// Replacing the symbol set cascades away every edge that touched the
		// old rows, inbound included; resolution below rebuilds outgoing
		// edges, and the referencer pass rebuilds inbound ones.
		if _, err := tx.ReplaceSymbolsForFile(ctx, rel, res.Symbols); err != nil {
			return err
		}
		edges, err := newResolver(ctx, tx).resolveFile(rel, refs)
		if err != nil {
			return err
		}
		return tx.InsertEdges(ctx, edges)
	})
	if err != nil {
		// The transaction rolled back; the file keeps its previous indexed
		// state and the next watch event or rescan retries.
		return err
	}

	ix.refs.set(rel, refs)
	ix.store.Publish(graph.ChangeEvent{Type: graph.FileIndexed, Path: rel})
	slog.Debug("index.file", "path", rel, "symbols", len(res.Symbols))

	changed := mergeNames(symbolNames(oldSymbols), symbolNames(res.Symbols))
	ix.reResolveReferencers(ctx, changed, rel)
	return nil
}

// RemoveFile drops a deleted file's slice of the graph and re-resolves the
// files that referenced its symbols.
func (ix *Indexer) RemoveFile(ctx context.Context, rel string) error {
	oldSymbols, err := ix.store.SymbolsForFile(ctx, rel)
	if err != nil {
		return err
	}
	existing, err := ix.store.FileByPath(ctx, rel)
	if err != nil {
		return err
	}
	if existing == nil && len(oldSymbols) == 0 {
		return nil
	}
	err = ix.store.WithTransaction(ctx, func(tx *store.Store) error {
		return tx.DeleteFile(ctx, rel)
	})
	if err != nil {
		return err
	}
	ix.refs.remove(rel)
	ix.store.Publish(graph.ChangeEvent{Type: graph.FileRemoved, Path: rel})
	slog.Debug("index.removed", "path", rel)

	ix.reResolveReferencers(ctx, symbolNames(oldSymbols), rel)
	return nil
}

// reResolveReferencers re-runs edge resolution for every file referencing any
// of the changed names. A file whose references are not in memory (indexed in
// an earlier run and hash-skipped since) is re-parsed first.
func (ix *Indexer) reResolveReferencers(ctx context.Context, names map[string]struct{}, skip string) {
	for _, other := range ix.refs.referencers(names, skip) {
		if err := ix.commitEdges(ctx, other); err != nil {
			slog.Warn("index.resolve_fail", "path", other, "err", err)
		}
	}
}

// loadRefs re-parses a file to recover its reference lists, used when a
// targeted re-resolution needs a file indexed by a previous run.
func (ix *Indexer) loadRefs(rel string) *fileRefs {
	if refs := ix.refs.get(rel); refs != nil {
		return refs
	}
	content, err := readFile(ix.root, rel)
	if err != nil {
		return nil
	}
	res, err := parser.Parse(rel, content)
	if err != nil || res == nil {
		return nil
	}
	refs := newFileRefs(res)
	ix.refs.set(rel, refs)
	return refs
}

// Run consumes watch events until ctx ends. Each event (re)starts a per-path
// debounce timer; only the latest change per path is ever processed. A file
// still being written when its timer fires gets the stability window re-armed
// instead of a mid-write parse. The poll ticker rescans for anything the
// watcher missed.
func (ix *Indexer) Run(ctx context.Context, events <-chan watcher.Event) error {
	due := make(chan string, 1024)
	timers := map[string]*time.Timer{}
	pendingRemove := map[string]bool{}

	debounce := ix.cfg.EffectiveDebounce()
	stability := ix.cfg.EffectiveStability()

	// An explicit zero interval disables the poll fallback.
	interval := ix.cfg.EffectivePollInterval()
	var pollC <-chan time.Time
	if interval > 0 {
		poll := time.NewTicker(interval)
		defer poll.Stop()
		pollC = poll.C
	}

	arm := func(p string, d time.Duration) {
		if t, ok := timers[p]; ok {
			t.Stop()
		}
		timers[p] = time.AfterFunc(d, func() {
			select {
			case due <- p:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pendingRemove[ev.Path] = ev.Op == watcher.OpRemove
			arm(ev.Path, debounce)
		case p := <-due:
			delete(timers, p)
			remove := pendingRemove[p]
			delete(pendingRemove, p)
			if remove {
				if err := ix.RemoveFile(ctx, p); err != nil {
					slog.Warn("index.remove_fail", "path", p, "err", err)
				}
				continue
			}
			if stability > 0 {
				abs := filepath.Join(ix.root, filepath.FromSlash(p))
				if info, err := os.Stat(abs); err == nil && time.Since(info.ModTime()) < stability {
					pendingRemove[p] = false
					arm(p, stability)
					continue
				}
			}
			if err := ix.ReindexFile(ctx, p); err != nil {
				slog.Warn("index.fail", "path", p, "err", err)
			}
		case <-pollC:
			ix.rescan(ctx)
		}
	}
}

// rescan reconciles the store against the disk: changed or new files are
// re-indexed (the hash check keeps unchanged ones cheap) and rows for
// vanished files are removed.
func (ix *Indexer) rescan(ctx context.Context) {
	paths, err := Discover(ix.root, ix.filter)
	if err != nil {
		slog.Warn("index.rescan_fail", "err", err)
		return
	}
	onDisk := map[string]bool{}
	for _, p := range paths {
		onDisk[p] = true
		if err := ix.ReindexFile(ctx, p); err != nil {
			slog.Warn("index.fail", "path", p, "err", err)
		}
	}
	files, err := ix.store.ListFiles(ctx)
	if err != nil {
		slog.Warn("index.rescan_fail", "err", err)
		return
	}
	for _, f := range files {
		if !onDisk[f.Path] {
			if err := ix.RemoveFile(ctx, f.Path); err != nil {
				slog.Warn("index.remove_fail", "path", f.Path, "err", err)
			}
		}
	}
}

func fileRecord(rel, hash string) graph.File {
	language := ""
	if spec := lang.ForPath(rel); spec != nil {
		language = string(spec.Language)
	}
	return graph.File{
		Path:        rel,
		Hash:        hash,
		Language:    language,
		LastIndexed: time.Now().UTC().Format(time.RFC3339),
	}
}
