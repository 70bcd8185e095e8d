package indexer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"codegraph/internal/config"
	"codegraph/internal/graph"
	"codegraph/internal/ignore"
	"codegraph/internal/store"
)

func writeWorkspace(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		abs := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(abs, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return root
}

func newTestIndexer(t *testing.T, root string) (*Indexer, *store.Store) {
	t.Helper()
	s, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	ix := New(root, s, ignore.Load(root, nil), &config.Config{})
	return ix, s
}

func fullIndex(t *testing.T, ix *Indexer) {
	t.Helper()
	if err := ix.FullIndex(context.Background()); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}
}

// symbolIn finds the symbol with the given FQName in a specific file.
func symbolIn(t *testing.T, s *store.Store, path, fq string) *graph.Symbol {
	t.Helper()
	syms, err := s.SymbolsByFQName(context.Background(), fq)
	if err != nil {
		t.Fatalf("SymbolsByFQName(%s): %v", fq, err)
	}
	for i := range syms {
		if syms[i].Path == path {
			return &syms[i]
		}
	}
	return nil
}

func mustSymbolIn(t *testing.T, s *store.Store, path, fq string) *graph.Symbol {
	t.Helper()
	sym := symbolIn(t, s, path, fq)
	if sym == nil {
		t.Fatalf("symbol %s missing from %s", fq, path)
	}
	return sym
}

func hasEdgeBetween(t *testing.T, s *store.Store, src, dst *graph.Symbol, kind graph.EdgeKind) bool {
	t.Helper()
	out, err := s.OutgoingEdges(context.Background(), src.ID)
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	for _, n := range out {
		if n.Edge.DstID == dst.ID && n.Edge.Kind == kind {
			return true
		}
	}
	return false
}

const widgetTS = `export class Widget {
	render() {}
}
`

// The consumer sorts before the definer, so pass 1 commits it first; the
// forward reference must still resolve.
const appTS = `import { Widget } from "./widget";

export function show() {
	const w = new Widget();
	return w.render();
}
`

func TestCrossFileForwardReference(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"app.ts":    appTS,
		"widget.ts": widgetTS,
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)

	show := mustSymbolIn(t, s, "app.ts", "show")
	widget := mustSymbolIn(t, s, "widget.ts", "Widget")
	render := mustSymbolIn(t, s, "widget.ts", "Widget.render")

	if !hasEdgeBetween(t, s, show, widget, graph.EdgeCalls) {
		t.Fatalf("missing edge show -> Widget")
	}
	if !hasEdgeBetween(t, s, show, render, graph.EdgeCalls) {
		t.Fatalf("missing edge show -> render")
	}

	appMod := mustSymbolIn(t, s, "app.ts", "app")
	widgetMod := mustSymbolIn(t, s, "widget.ts", "widget")
	if !hasEdgeBetween(t, s, appMod, widgetMod, graph.EdgeImports) {
		t.Fatalf("missing module imports edge")
	}
	if !hasEdgeBetween(t, s, widgetMod, widget, graph.EdgeContains) {
		t.Fatalf("missing contains edge module -> Widget")
	}
	if !hasEdgeBetween(t, s, widget, render, graph.EdgeContains) {
		t.Fatalf("missing contains edge Widget -> render")
	}
}

func TestDualEdgeStaticMemberCall(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"foo.ts": "export class Foo {\n\tstatic bar() {}\n}\n",
		"use.ts": "import { Foo } from \"./foo\";\nconst x = new Foo();\nFoo.bar();\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)

	useMod := mustSymbolIn(t, s, "use.ts", "use")
	foo := mustSymbolIn(t, s, "foo.ts", "Foo")
	bar := mustSymbolIn(t, s, "foo.ts", "Foo.bar")

	// Construction links the type; the static call links both member and type.
	if !hasEdgeBetween(t, s, useMod, foo, graph.EdgeCalls) {
		t.Fatalf("missing edge to constructed/static type Foo")
	}
	if !hasEdgeBetween(t, s, useMod, bar, graph.EdgeCalls) {
		t.Fatalf("missing edge to static member Foo.bar")
	}
}

func TestDeletionCorrectness(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"defs.ts": "export function A() {}\nexport function B() {}\nexport function C() {}\n",
		"use.ts":  "import { A, B, C } from \"./defs\";\nA();\nB();\nC();\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	useMod := mustSymbolIn(t, s, "use.ts", "use")
	if !hasEdgeBetween(t, s, useMod, mustSymbolIn(t, s, "defs.ts", "B"), graph.EdgeCalls) {
		t.Fatalf("precondition: edge to B missing")
	}

	abs := filepath.Join(root, "defs.ts")
	if err := os.WriteFile(abs, []byte("export function A() {}\nexport function C() {}\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := ix.ReindexFile(ctx, "defs.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}

	if b := symbolIn(t, s, "defs.ts", "B"); b != nil {
		t.Fatalf("node B should be removed, got %+v", b)
	}
	useMod = mustSymbolIn(t, s, "use.ts", "use")
	if !hasEdgeBetween(t, s, useMod, mustSymbolIn(t, s, "defs.ts", "A"), graph.EdgeCalls) {
		t.Fatalf("edge to surviving A lost")
	}
	if !hasEdgeBetween(t, s, useMod, mustSymbolIn(t, s, "defs.ts", "C"), graph.EdgeCalls) {
		t.Fatalf("edge to surviving C lost")
	}
}

func TestInboundEdgesSurviveUnrelatedEdit(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.ts": "export class A {\n\tstatic f() {}\n}\n",
		"b.ts": "import { A } from \"./a\";\nexport function show() { A.f(); }\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	// Add an unrelated function to a.ts; f itself is untouched. Replacing
	// a.ts's rows cascades b.ts's inbound edges away, so the referencer pass
	// must rebuild them against the fresh ids.
	abs := filepath.Join(root, "a.ts")
	if err := os.WriteFile(abs, []byte("export class A {\n\tstatic f() {}\n}\nexport function g() {}\n"), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := ix.ReindexFile(ctx, "a.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}

	show := mustSymbolIn(t, s, "b.ts", "show")
	f := mustSymbolIn(t, s, "a.ts", "A.f")
	if !hasEdgeBetween(t, s, show, f, graph.EdgeCalls) {
		t.Fatalf("inbound edge show -> A.f not rebuilt after unrelated edit")
	}
}

// A restarted process finds unchanged files already stored and skips their
// writes, but an edit elsewhere must still re-resolve them: the reverse
// reference index has to cover hash-skipped files too.
func TestWarmRestartRebuildsInboundEdges(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.ts": "export class A {\n\tstatic f() {}\n}\n",
		"b.ts": "import { A } from \"./a\";\nexport function show() { A.f(); }\n",
	})
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	ctx := context.Background()

	s1, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ix1 := New(root, s1, ignore.Load(root, nil), &config.Config{})
	if err := ix1.FullIndex(ctx); err != nil {
		t.Fatalf("FullIndex: %v", err)
	}
	s1.Close()

	// Fresh in-memory state against the warm database.
	s2, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { s2.Close() })
	ix2 := New(root, s2, ignore.Load(root, nil), &config.Config{})
	if err := ix2.FullIndex(ctx); err != nil {
		t.Fatalf("FullIndex after restart: %v", err)
	}

	abs := filepath.Join(root, "a.ts")
	edited := "export class A {\n\tstatic f() {}\n}\nexport function g() {}\n"
	if err := os.WriteFile(abs, []byte(edited), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := ix2.ReindexFile(ctx, "a.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}

	show := mustSymbolIn(t, s2, "b.ts", "show")
	f := mustSymbolIn(t, s2, "a.ts", "A.f")
	if !hasEdgeBetween(t, s2, show, f, graph.EdgeCalls) {
		t.Fatalf("inbound edge show -> A.f lost after restart and edit")
	}
}

// Incrementally indexing the consumer before the definer exists must converge
// to the same edges as indexing them together.
func TestIncrementalConsumerBeforeDefiner(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"app.ts":    appTS,
		"widget.ts": widgetTS,
	})
	ix, s := newTestIndexer(t, root)
	ctx := context.Background()

	if err := ix.ReindexFile(ctx, "app.ts"); err != nil {
		t.Fatalf("ReindexFile app: %v", err)
	}
	if err := ix.ReindexFile(ctx, "widget.ts"); err != nil {
		t.Fatalf("ReindexFile widget: %v", err)
	}

	show := mustSymbolIn(t, s, "app.ts", "show")
	widget := mustSymbolIn(t, s, "widget.ts", "Widget")
	render := mustSymbolIn(t, s, "widget.ts", "Widget.render")
	if !hasEdgeBetween(t, s, show, widget, graph.EdgeCalls) {
		t.Fatalf("missing edge show -> Widget with consumer indexed first")
	}
	if !hasEdgeBetween(t, s, show, render, graph.EdgeCalls) {
		t.Fatalf("missing edge show -> render with consumer indexed first")
	}
	appMod := mustSymbolIn(t, s, "app.ts", "app")
	widgetMod := mustSymbolIn(t, s, "widget.ts", "widget")
	if !hasEdgeBetween(t, s, appMod, widgetMod, graph.EdgeImports) {
		t.Fatalf("missing module imports edge with consumer indexed first")
	}
}

func TestRemoveFileDropsEdges(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"app.ts":    appTS,
		"widget.ts": widgetTS,
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	if err := os.Remove(filepath.Join(root, "widget.ts")); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := ix.RemoveFile(ctx, "widget.ts"); err != nil {
		t.Fatalf("RemoveFile: %v", err)
	}

	if f, _ := s.FileByPath(ctx, "widget.ts"); f != nil {
		t.Fatalf("file row survived removal: %+v", f)
	}
	if sym := symbolIn(t, s, "widget.ts", "Widget"); sym != nil {
		t.Fatalf("symbols survived removal: %+v", sym)
	}
	show := mustSymbolIn(t, s, "app.ts", "show")
	out, err := s.OutgoingEdges(ctx, show.ID)
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("dangling edges after removal: %+v", out)
	}
}

func TestIgnorePropagation(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		".gitignore":        "debug/\n",
		"debug/a.ts":        "export function hidden() {}\n",
		"debug/nested/b.ts": "export function alsoHidden() {}\n",
		"src/main.ts":       "export function main() {}\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	files, err := s.ListFiles(ctx)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(files) != 1 || files[0].Path != "src/main.ts" {
		t.Fatalf("ignored files were indexed: %+v", files)
	}

	// Events for ignored paths are dropped even if they reach the indexer.
	if err := ix.ReindexFile(ctx, "debug/a.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}
	if f, _ := s.FileByPath(ctx, "debug/a.ts"); f != nil {
		t.Fatalf("ignored path indexed on direct request")
	}
}

func TestIncrementalEditGrowsFunctionRange(t *testing.T) {
	before := "export function f() {\n\ta();\n\tb();\n\tc();\n}\n"
	after := "export function f() {\n\ta();\n\tb();\n\tc();\n\tconst g = () => { d(); };\n}\n"
	root := writeWorkspace(t, map[string]string{"f.ts": before})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	oldF := mustSymbolIn(t, s, "f.ts", "f")
	oldCount, _ := s.CountSymbols(ctx)

	if err := os.WriteFile(filepath.Join(root, "f.ts"), []byte(after), 0o644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if err := ix.ReindexFile(ctx, "f.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}

	newF := mustSymbolIn(t, s, "f.ts", "f")
	if newF.EndByte <= oldF.EndByte {
		t.Fatalf("range end did not grow: %d -> %d", oldF.EndByte, newF.EndByte)
	}
	newCount, _ := s.CountSymbols(ctx)
	if newCount != oldCount {
		t.Fatalf("statement inside a body created top-level symbols: %d -> %d", oldCount, newCount)
	}
}

func TestReindexSkipsUnchangedContent(t *testing.T) {
	root := writeWorkspace(t, map[string]string{"a.ts": "export function f() {}\n"})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	before, _ := s.FileByPath(ctx, "a.ts")
	id := mustSymbolIn(t, s, "a.ts", "f").ID

	if err := ix.ReindexFile(ctx, "a.ts"); err != nil {
		t.Fatalf("ReindexFile: %v", err)
	}
	after, _ := s.FileByPath(ctx, "a.ts")
	if after.LastIndexed != before.LastIndexed {
		t.Fatalf("unchanged file was re-indexed")
	}
	if mustSymbolIn(t, s, "a.ts", "f").ID != id {
		t.Fatalf("unchanged file's symbols were replaced")
	}
}

func TestAmbiguousNameTieBreak(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"a.ts": "export function dup() {}\n",
		"z.ts": "export function dup() {}\n",
		"m.ts": "dup();\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	m := mustSymbolIn(t, s, "m.ts", "m")
	out, err := s.OutgoingEdges(ctx, m.ID)
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	var calls []store.Neighbor
	for _, n := range out {
		if n.Edge.Kind == graph.EdgeCalls {
			calls = append(calls, n)
		}
	}
	if len(calls) != 1 {
		t.Fatalf("ambiguous call should resolve to exactly one target: %+v", calls)
	}
	// Deterministic tie-break: lowest file path wins.
	if calls[0].Symbol.Path != "a.ts" {
		t.Fatalf("tie-break picked %s, want a.ts", calls[0].Symbol.Path)
	}
}

func TestPythonRelativeImportResolution(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"pkg/__init__.py": "",
		"pkg/util.py":     "def helper():\n\tpass\n",
		"pkg/main.py":     "from .util import helper\n\ndef run():\n\thelper()\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)

	run := mustSymbolIn(t, s, "pkg/main.py", "run")
	helper := mustSymbolIn(t, s, "pkg/util.py", "helper")
	if !hasEdgeBetween(t, s, run, helper, graph.EdgeCalls) {
		t.Fatalf("missing edge run -> helper")
	}

	mainMod := mustSymbolIn(t, s, "pkg/main.py", "pkg.main")
	utilMod := mustSymbolIn(t, s, "pkg/util.py", "pkg.util")
	if !hasEdgeBetween(t, s, mainMod, utilMod, graph.EdgeImports) {
		t.Fatalf("missing module imports edge")
	}
}

func TestHeritageEdges(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"base.ts": "export class Base {}\nexport interface Drawable {}\n",
		"w.ts":    "import { Base, Drawable } from \"./base\";\nexport class W extends Base implements Drawable {}\n",
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)

	w := mustSymbolIn(t, s, "w.ts", "W")
	base := mustSymbolIn(t, s, "base.ts", "Base")
	drawable := mustSymbolIn(t, s, "base.ts", "Drawable")
	if !hasEdgeBetween(t, s, w, base, graph.EdgeInherits) {
		t.Fatalf("missing inherits edge")
	}
	if !hasEdgeBetween(t, s, w, drawable, graph.EdgeImplements) {
		t.Fatalf("missing implements edge")
	}
}

func TestFullIndexIdempotent(t *testing.T) {
	root := writeWorkspace(t, map[string]string{
		"app.ts":    appTS,
		"widget.ts": widgetTS,
	})
	ix, s := newTestIndexer(t, root)
	fullIndex(t, ix)
	ctx := context.Background()

	symbols, _ := s.CountSymbols(ctx)
	edges, _ := s.CountEdges(ctx)

	fullIndex(t, ix)
	if n, _ := s.CountSymbols(ctx); n != symbols {
		t.Fatalf("symbol count changed on re-index: %d -> %d", symbols, n)
	}
	if n, _ := s.CountEdges(ctx); n != edges {
		t.Fatalf("edge count changed on re-index: %d -> %d", edges, n)
	}
}
