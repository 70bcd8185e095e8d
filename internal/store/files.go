package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"codegraph/internal/graph"
)

// UpsertFile inserts or refreshes the metadata row for a path.
func (s *Store) UpsertFile(ctx context.Context, f graph.File) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO files (path, hash, language, last_indexed)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			hash = excluded.hash,
			language = excluded.language,
			last_indexed = excluded.last_indexed`,
		f.Path, f.Hash, f.Language, f.LastIndexed)
	if err != nil {
		return fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	return nil
}

// FileByPath returns the metadata row for a path, or nil when the path has
// never been indexed.
func (s *Store) FileByPath(ctx context.Context, path string) (*graph.File, error) {
	var f graph.File
	err := s.q.QueryRowContext(ctx, `
		SELECT path, hash, language, last_indexed FROM files WHERE path = ?`,
		path).Scan(&f.Path, &f.Hash, &f.Language, &f.LastIndexed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query file %s: %w", path, err)
	}
	return &f, nil
}

// ListFiles returns every indexed file ordered by path.
func (s *Store) ListFiles(ctx context.Context) ([]graph.File, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT path, hash, language, last_indexed FROM files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []graph.File
	for rows.Next() {
		var f graph.File
		if err := rows.Scan(&f.Path, &f.Hash, &f.Language, &f.LastIndexed); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DeleteFile removes a file's metadata row. Its symbols, and every edge
// touching them, go with it through the cascades.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM files WHERE path = ?`, path); err != nil {
		return fmt.Errorf("delete file %s: %w", path, err)
	}
	return nil
}
