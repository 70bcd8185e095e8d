package store

import (
	"context"
	"fmt"
	"strings"

	"codegraph/internal/graph"
)

// edgeBatchSize keeps multi-row inserts under SQLite's bind variable limit
// (3 binds per row, 999 variables per statement).
const edgeBatchSize = 300

// InsertEdges inserts edges in batches. Duplicate (src, dst, kind) triples
// are ignored rather than erroring, so re-resolution is idempotent.
func (s *Store) InsertEdges(ctx context.Context, edges []graph.Edge) error {
	for start := 0; start < len(edges); start += edgeBatchSize {
		end := min(start+edgeBatchSize, len(edges))
		batch := edges[start:end]

		var b strings.Builder
		b.WriteString(`INSERT INTO edges (src, dst, kind) VALUES `)
		args := make([]any, 0, len(batch)*3)
		for i, e := range batch {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("(?, ?, ?)")
			args = append(args, e.SrcID, e.DstID, e.Kind)
		}
		b.WriteString(` ON CONFLICT(src, dst, kind) DO NOTHING`)

		if _, err := s.q.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("insert edges: %w", err)
		}
	}
	return nil
}

// Neighbor is an edge joined with the symbol at its far end.
type Neighbor struct {
	Edge   graph.Edge
	Symbol graph.Symbol
}

// OutgoingEdges returns the edges leaving a symbol, joined with their targets.
func (s *Store) OutgoingEdges(ctx context.Context, srcID int64) ([]Neighbor, error) {
	return s.queryNeighbors(ctx, `
		SELECT e.id, e.src, e.dst, e.kind, `+prefixedSymbolColumns("sy")+`
		FROM edges e JOIN symbols sy ON sy.id = e.dst
		WHERE e.src = ?
		ORDER BY e.kind, sy.path, sy.start_byte`, srcID)
}

// IncomingEdges returns the edges arriving at a symbol, joined with their
// sources.
func (s *Store) IncomingEdges(ctx context.Context, dstID int64) ([]Neighbor, error) {
	return s.queryNeighbors(ctx, `
		SELECT e.id, e.src, e.dst, e.kind, `+prefixedSymbolColumns("sy")+`
		FROM edges e JOIN symbols sy ON sy.id = e.src
		WHERE e.dst = ?
		ORDER BY e.kind, sy.path, sy.start_byte`, dstID)
}

// DeleteEdgesFromFile removes every edge whose source symbol lives in path.
// Used before re-resolving a file's outgoing references.
func (s *Store) DeleteEdgesFromFile(ctx context.Context, path string) error {
	_, err := s.q.ExecContext(ctx, `
		DELETE FROM edges WHERE src IN (SELECT id FROM symbols WHERE path = ?)`, path)
	if err != nil {
		return fmt.Errorf("delete edges from %s: %w", path, err)
	}
	return nil
}

// CountEdges returns the total number of stored edges.
func (s *Store) CountEdges(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count edges: %w", err)
	}
	return n, nil
}

func (s *Store) queryNeighbors(ctx context.Context, query string, args ...any) ([]Neighbor, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var out []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Edge.ID, &n.Edge.SrcID, &n.Edge.DstID, &n.Edge.Kind,
			&n.Symbol.ID, &n.Symbol.Kind, &n.Symbol.Name, &n.Symbol.FQName,
			&n.Symbol.Path, &n.Symbol.StartByte, &n.Symbol.EndByte, &n.Symbol.Language); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func prefixedSymbolColumns(alias string) string {
	cols := strings.Split(symbolColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
