// Package ignore decides which paths the indexer and watcher skip.
package ignore

import (
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// builtinDirs are always skipped, gitignore or not. They hold generated or
// third-party trees that would swamp the graph with noise.
var builtinDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	".idea":        true,
	".vscode":      true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
	"venv":         true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
	"out":          true,
	"obj":          true,
	"bin":          true,
	".next":        true,
	"coverage":     true,
}

// Filter answers skip questions for workspace-relative slash paths.
type Filter struct {
	matcher *gitignore.GitIgnore
}

// Load builds a Filter from the workspace's .gitignore (if present) plus any
// extra patterns from configuration. Patterns use gitignore syntax.
func Load(root string, extra []string) *Filter {
	var lines []string
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		lines = strings.Split(string(data), "\n")
	}
	lines = append(lines, extra...)
	return &Filter{matcher: gitignore.CompileIgnoreLines(lines...)}
}

// FromPatterns builds a Filter from explicit patterns only, used by tests.
func FromPatterns(patterns ...string) *Filter {
	return &Filter{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

// ShouldIgnore reports whether a file path is excluded. Any builtin directory
// segment on the path excludes it too.
func (f *Filter) ShouldIgnore(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	for _, seg := range strings.Split(relPath, "/") {
		if builtinDirs[seg] {
			return true
		}
	}
	return f.matcher.MatchesPath(relPath)
}

// ShouldIgnoreDirectory reports whether a directory subtree is excluded.
// Directory patterns such as "debug/" only match with the trailing slash, so
// the path is tested in both forms.
func (f *Filter) ShouldIgnoreDirectory(relPath string) bool {
	relPath = filepath.ToSlash(relPath)
	if builtinDirs[filepath.Base(relPath)] {
		return true
	}
	return f.matcher.MatchesPath(relPath) || f.matcher.MatchesPath(relPath+"/")
}
