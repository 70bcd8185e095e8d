package store

import (
	"context"
	"fmt"

	"codegraph/internal/graph"
)

const symbolColumns = "id, kind, name, fqname, path, start_byte, end_byte, language"

// ReplaceSymbolsForFile swaps a file's symbol set atomically: the old rows are
// deleted (cascading away every edge that touched them) and the new set is
// inserted. The returned slice carries the assigned row IDs, ordered as given.
// Meant to run inside WithTransaction together with the file upsert.
func (s *Store) ReplaceSymbolsForFile(ctx context.Context, path string, symbols []graph.Symbol) ([]graph.Symbol, error) {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM symbols WHERE path = ?`, path); err != nil {
		return nil, fmt.Errorf("delete symbols for %s: %w", path, err)
	}
	if len(symbols) == 0 {
		return nil, nil
	}

	stmt, err := s.q.PrepareContext(ctx, `
		INSERT INTO symbols (kind, name, fqname, path, start_byte, end_byte, language)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()

	out := make([]graph.Symbol, 0, len(symbols))
	for _, sym := range symbols {
		res, err := stmt.ExecContext(ctx,
			sym.Kind, sym.Name, sym.FQName, path, sym.StartByte, sym.EndByte, sym.Language)
		if err != nil {
			return nil, fmt.Errorf("insert symbol %s in %s: %w", sym.FQName, path, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("symbol id: %w", err)
		}
		sym.ID = id
		sym.Path = path
		out = append(out, sym)
	}
	return out, nil
}

// SymbolsForFile returns a file's symbols ordered by start offset.
func (s *Store) SymbolsForFile(ctx context.Context, path string) ([]graph.Symbol, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE path = ? ORDER BY start_byte, end_byte DESC`, path)
}

// SymbolsByName returns every symbol with the given simple name. The order,
// path then start offset, is the deterministic tie-break order used when a
// reference resolves ambiguously.
func (s *Store) SymbolsByName(ctx context.Context, name string) ([]graph.Symbol, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE name = ? ORDER BY path, start_byte`, name)
}

// SymbolsByFQName returns every symbol with the exact fully qualified name,
// in tie-break order.
func (s *Store) SymbolsByFQName(ctx context.Context, fqname string) ([]graph.Symbol, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE fqname = ? ORDER BY path, start_byte`, fqname)
}

// SymbolsByFQSuffix returns symbols whose fully qualified name ends with
// "."+suffix, in tie-break order.
func (s *Store) SymbolsByFQSuffix(ctx context.Context, suffix string) ([]graph.Symbol, error) {
	return s.querySymbols(ctx, `
		SELECT `+symbolColumns+` FROM symbols
		WHERE fqname LIKE ? ESCAPE '\' ORDER BY path, start_byte`,
		"%."+escapeLike(suffix))
}

// SymbolByID returns one symbol, or nil when the id is gone.
func (s *Store) SymbolByID(ctx context.Context, id int64) (*graph.Symbol, error) {
	syms, err := s.querySymbols(ctx, `
		SELECT `+symbolColumns+` FROM symbols WHERE id = ?`, id)
	if err != nil || len(syms) == 0 {
		return nil, err
	}
	return &syms[0], nil
}

// CountSymbols returns the total number of stored symbols.
func (s *Store) CountSymbols(ctx context.Context) (int64, error) {
	var n int64
	if err := s.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM symbols`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count symbols: %w", err)
	}
	return n, nil
}

func (s *Store) querySymbols(ctx context.Context, query string, args ...any) ([]graph.Symbol, error) {
	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []graph.Symbol
	for rows.Next() {
		var sym graph.Symbol
		if err := rows.Scan(&sym.ID, &sym.Kind, &sym.Name, &sym.FQName,
			&sym.Path, &sym.StartByte, &sym.EndByte, &sym.Language); err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
