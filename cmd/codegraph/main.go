// Command codegraph indexes a workspace into a queryable symbol graph, keeps
// it in sync with on-disk edits, and serves read-only MCP query tools over
// stdio.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	"codegraph/internal/config"
	"codegraph/internal/ignore"
	"codegraph/internal/indexer"
	"codegraph/internal/store"
	"codegraph/internal/tools"
	"codegraph/internal/watcher"
)

var version = "dev"

func main() {
	root := flag.String("root", ".", "workspace root to index")
	dbPath := flag.String("db", "", "graph database path (default from .cgconfig)")
	watch := flag.Bool("watch", true, "watch the workspace and re-index on change")
	serve := flag.Bool("mcp", true, "serve query tools over stdio")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("codegraph", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	// Stdout carries the MCP stream; logs go to stderr.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*root, *dbPath, *watch, *serve); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(root, dbPath string, watch, serve bool) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root: %w", err)
	}

	cfg, err := config.Load(absRoot)
	if err != nil {
		return err
	}
	if dbPath != "" {
		cfg.DatabasePath = &dbPath
	}

	filter := ignore.Load(absRoot, cfg.IgnorePatterns)

	st, err := store.Open(cfg.EffectiveDatabasePath(absRoot))
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ix := indexer.New(absRoot, st, filter, cfg)
	if err := ix.FullIndex(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	if watch {
		w, err := watcher.New(absRoot, filter)
		if err != nil {
			return err
		}
		defer w.Close()
		g.Go(func() error { return w.Run(gctx) })
		g.Go(func() error { return ix.Run(gctx, w.Events()) })
	}
	if serve {
		srv := tools.NewServer(st, version)
		g.Go(func() error { return srv.MCPServer().Run(gctx, &mcp.StdioTransport{}) })
	}
	if !watch && !serve {
		return nil
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
