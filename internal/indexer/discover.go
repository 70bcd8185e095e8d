package indexer

import (
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/zeebo/xxh3"

	"codegraph/internal/ignore"
	"codegraph/internal/lang"
)

// Discover walks the workspace and returns the sorted, workspace-relative
// slash paths of every indexable file. Ignored directories are pruned without
// descending into them.
func Discover(root string, filter *ignore.Filter) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entry, keep walking
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if filter.ShouldIgnoreDirectory(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if filter.ShouldIgnore(rel) {
			return nil
		}
		if lang.ForPath(rel) == nil {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// hashContent returns the xxh3 hex digest used to skip re-parsing unchanged
// files.
func hashContent(content []byte) string {
	h := xxh3.New()
	_, _ = h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// readFile loads a workspace-relative file.
func readFile(root, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}
	return data, nil
}
