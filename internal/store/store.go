// Package store persists the symbol graph in SQLite.
//
// Symbols and edges live in two tables with cascading deletes: removing a
// file removes its symbols, and removing a symbol removes every edge touching
// it. All multi-step mutations run through WithTransaction so a file's slice
// of the graph changes atomically.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path         TEXT PRIMARY KEY,
	hash         TEXT NOT NULL,
	language     TEXT NOT NULL,
	last_indexed TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbols (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	kind       TEXT NOT NULL,
	name       TEXT NOT NULL,
	fqname     TEXT NOT NULL,
	path       TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	start_byte INTEGER NOT NULL,
	end_byte   INTEGER NOT NULL,
	language   TEXT NOT NULL,
	UNIQUE(path, kind, fqname, start_byte, end_byte)
);

CREATE INDEX IF NOT EXISTS idx_symbols_name   ON symbols(name);
CREATE INDEX IF NOT EXISTS idx_symbols_fqname ON symbols(fqname);
CREATE INDEX IF NOT EXISTS idx_symbols_path   ON symbols(path);

CREATE TABLE IF NOT EXISTS edges (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	src  INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	dst  INTEGER NOT NULL REFERENCES symbols(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	UNIQUE(src, dst, kind)
);

CREATE INDEX IF NOT EXISTS idx_edges_src ON edges(src);
CREATE INDEX IF NOT EXISTS idx_edges_dst ON edges(dst);
`

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx, so
// every query method works identically inside and outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// Store wraps a SQLite database holding the symbol graph.
type Store struct {
	db     *sql.DB // nil in a transaction-scoped Store
	q      Querier
	events *eventHub
}

// Open opens (creating if needed) the graph database at path.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	return open(dsn)
}

// OpenMemory opens an in-memory database, used by tests.
func OpenMemory() (*Store, error) {
	return open("file::memory:?_foreign_keys=on")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway and a single
	// connection keeps in-memory databases coherent.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, q: db, events: newEventHub()}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	s.events.close()
	return s.db.Close()
}

// WithTransaction runs fn against a transaction-scoped Store and commits if
// fn returns nil. Any error rolls the whole transaction back.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	if s.db == nil {
		return errors.New("nested transaction")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	txStore := &Store{q: tx, events: s.events}
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback after %w: %v", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
