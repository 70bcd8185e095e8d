package ignore

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinDirectories(t *testing.T) {
	f := FromPatterns()
	for _, p := range []string{
		"node_modules/lodash/index.js",
		"src/vendor/lib.go",
		".git/HEAD",
		"__pycache__/mod.pyc",
	} {
		if !f.ShouldIgnore(p) {
			t.Fatalf("expected %s ignored", p)
		}
	}
	if f.ShouldIgnore("src/main.ts") {
		t.Fatalf("src/main.ts should not be ignored")
	}
}

func TestGitignorePatterns(t *testing.T) {
	f := FromPatterns("*.log", "debug/", "!keep.log")

	if !f.ShouldIgnore("app.log") {
		t.Fatalf("*.log should match app.log")
	}
	if f.ShouldIgnore("keep.log") {
		t.Fatalf("negation should rescue keep.log")
	}
	if !f.ShouldIgnore("debug/trace.ts") {
		t.Fatalf("files under debug/ should be ignored")
	}
	if !f.ShouldIgnoreDirectory("debug") {
		t.Fatalf("trailing-slash pattern should match the directory itself")
	}
	if f.ShouldIgnoreDirectory("src") {
		t.Fatalf("src should not be ignored")
	}
}

func TestLoadReadsWorkspaceGitignore(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("generated/\n*.tmp\n"), 0o644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}

	f := Load(dir, []string{"extra.ts"})
	if !f.ShouldIgnore("generated/code.ts") {
		t.Fatalf("gitignore pattern not applied")
	}
	if !f.ShouldIgnore("scratch.tmp") {
		t.Fatalf("*.tmp not applied")
	}
	if !f.ShouldIgnore("extra.ts") {
		t.Fatalf("extra config pattern not applied")
	}
	if f.ShouldIgnore("src/ok.ts") {
		t.Fatalf("src/ok.ts should pass")
	}
}

func TestLoadWithoutGitignore(t *testing.T) {
	f := Load(t.TempDir(), nil)
	if f.ShouldIgnore("main.go") {
		t.Fatalf("nothing should be ignored without patterns")
	}
	if !f.ShouldIgnore("node_modules/x.js") {
		t.Fatalf("builtins still apply without a .gitignore")
	}
}
