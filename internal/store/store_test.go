package store

import (
	"context"
	"errors"
	"testing"

	"codegraph/internal/graph"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedFile(t *testing.T, s *Store, path string, symbols ...graph.Symbol) []graph.Symbol {
	t.Helper()
	ctx := context.Background()
	if err := s.UpsertFile(ctx, graph.File{Path: path, Hash: "h", Language: "typescript", LastIndexed: "2026-01-01T00:00:00Z"}); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	out, err := s.ReplaceSymbolsForFile(ctx, path, symbols)
	if err != nil {
		t.Fatalf("ReplaceSymbolsForFile: %v", err)
	}
	return out
}

func sym(kind graph.Kind, name, fq string, start, end int) graph.Symbol {
	return graph.Symbol{Kind: kind, Name: name, FQName: fq, StartByte: start, EndByte: end, Language: "typescript"}
}

func TestFileRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	f := graph.File{Path: "a.ts", Hash: "abc", Language: "typescript", LastIndexed: "2026-01-02T00:00:00Z"}
	if err := s.UpsertFile(ctx, f); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	got, err := s.FileByPath(ctx, "a.ts")
	if err != nil {
		t.Fatalf("FileByPath: %v", err)
	}
	if got == nil || got.Hash != "abc" {
		t.Fatalf("FileByPath = %+v", got)
	}

	f.Hash = "def"
	if err := s.UpsertFile(ctx, f); err != nil {
		t.Fatalf("UpsertFile update: %v", err)
	}
	got, _ = s.FileByPath(ctx, "a.ts")
	if got.Hash != "def" {
		t.Fatalf("hash not updated: %+v", got)
	}

	if missing, err := s.FileByPath(ctx, "nope.ts"); err != nil || missing != nil {
		t.Fatalf("missing file = %+v, %v", missing, err)
	}
}

func TestReplaceSymbolsAssignsIDs(t *testing.T) {
	s := openTestStore(t)
	syms := seedFile(t, s, "a.ts",
		sym(graph.KindModule, "a", "a", 0, 100),
		sym(graph.KindFunction, "f", "f", 10, 50),
	)
	if len(syms) != 2 {
		t.Fatalf("got %d symbols", len(syms))
	}
	for _, sm := range syms {
		if sm.ID == 0 {
			t.Fatalf("unassigned id: %+v", sm)
		}
		if sm.Path != "a.ts" {
			t.Fatalf("path not set: %+v", sm)
		}
	}
}

func TestReplaceSymbolsDropsOldSet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedFile(t, s, "a.ts",
		sym(graph.KindFunction, "A", "A", 0, 10),
		sym(graph.KindFunction, "B", "B", 20, 30),
		sym(graph.KindFunction, "C", "C", 40, 50),
	)
	seedFile(t, s, "a.ts",
		sym(graph.KindFunction, "A", "A", 0, 10),
		sym(graph.KindFunction, "C", "C", 40, 50),
	)

	if got, _ := s.SymbolsByName(ctx, "B"); len(got) != 0 {
		t.Fatalf("B should be gone, got %+v", got)
	}
	if got, _ := s.SymbolsByName(ctx, "A"); len(got) != 1 {
		t.Fatalf("A should survive exactly once, got %+v", got)
	}
}

func TestDeleteFileCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedFile(t, s, "a.ts", sym(graph.KindFunction, "f", "f", 0, 10))
	b := seedFile(t, s, "b.ts", sym(graph.KindFunction, "g", "g", 0, 10))
	if err := s.InsertEdges(ctx, []graph.Edge{{SrcID: b[0].ID, DstID: a[0].ID, Kind: graph.EdgeCalls}}); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}

	if err := s.DeleteFile(ctx, "a.ts"); err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if got, _ := s.SymbolsForFile(ctx, "a.ts"); len(got) != 0 {
		t.Fatalf("symbols survived file delete: %+v", got)
	}
	if n, _ := s.CountEdges(ctx); n != 0 {
		t.Fatalf("edges survived endpoint delete: %d", n)
	}
	// The other endpoint is untouched.
	if got, _ := s.SymbolsForFile(ctx, "b.ts"); len(got) != 1 {
		t.Fatalf("b.ts symbols = %+v", got)
	}
}

func TestReplaceSymbolsCascadesInboundEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedFile(t, s, "a.ts", sym(graph.KindFunction, "f", "f", 0, 10))
	b := seedFile(t, s, "b.ts", sym(graph.KindFunction, "g", "g", 0, 10))
	if err := s.InsertEdges(ctx, []graph.Edge{{SrcID: b[0].ID, DstID: a[0].ID, Kind: graph.EdgeCalls}}); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}

	// Re-indexing a.ts replaces its rows; the inbound edge from b.ts must
	// cascade away so the resolver can rebuild it against the new id.
	seedFile(t, s, "a.ts", sym(graph.KindFunction, "f", "f", 0, 12))
	if n, _ := s.CountEdges(ctx); n != 0 {
		t.Fatalf("stale inbound edge survived: %d", n)
	}
}

func TestInsertEdgesIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedFile(t, s, "a.ts",
		sym(graph.KindFunction, "f", "f", 0, 10),
		sym(graph.KindFunction, "g", "g", 20, 30),
	)
	e := graph.Edge{SrcID: a[0].ID, DstID: a[1].ID, Kind: graph.EdgeCalls}
	if err := s.InsertEdges(ctx, []graph.Edge{e, e}); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}
	if err := s.InsertEdges(ctx, []graph.Edge{e}); err != nil {
		t.Fatalf("InsertEdges again: %v", err)
	}
	if n, _ := s.CountEdges(ctx); n != 1 {
		t.Fatalf("duplicate edges stored: %d", n)
	}
}

func TestNeighborQueries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedFile(t, s, "a.ts",
		sym(graph.KindFunction, "f", "f", 0, 10),
		sym(graph.KindFunction, "g", "g", 20, 30),
	)
	if err := s.InsertEdges(ctx, []graph.Edge{{SrcID: a[0].ID, DstID: a[1].ID, Kind: graph.EdgeCalls}}); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}

	out, err := s.OutgoingEdges(ctx, a[0].ID)
	if err != nil {
		t.Fatalf("OutgoingEdges: %v", err)
	}
	if len(out) != 1 || out[0].Symbol.Name != "g" || out[0].Edge.Kind != graph.EdgeCalls {
		t.Fatalf("outgoing = %+v", out)
	}

	in, err := s.IncomingEdges(ctx, a[1].ID)
	if err != nil {
		t.Fatalf("IncomingEdges: %v", err)
	}
	if len(in) != 1 || in[0].Symbol.Name != "f" {
		t.Fatalf("incoming = %+v", in)
	}
}

func TestDeleteEdgesFromFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := seedFile(t, s, "a.ts", sym(graph.KindFunction, "f", "f", 0, 10))
	b := seedFile(t, s, "b.ts", sym(graph.KindFunction, "g", "g", 0, 10))
	if err := s.InsertEdges(ctx, []graph.Edge{
		{SrcID: a[0].ID, DstID: b[0].ID, Kind: graph.EdgeCalls},
		{SrcID: b[0].ID, DstID: a[0].ID, Kind: graph.EdgeCalls},
	}); err != nil {
		t.Fatalf("InsertEdges: %v", err)
	}

	if err := s.DeleteEdgesFromFile(ctx, "a.ts"); err != nil {
		t.Fatalf("DeleteEdgesFromFile: %v", err)
	}
	if out, _ := s.OutgoingEdges(ctx, a[0].ID); len(out) != 0 {
		t.Fatalf("outgoing edges survived: %+v", out)
	}
	if in, _ := s.IncomingEdges(ctx, a[0].ID); len(in) != 1 {
		t.Fatalf("inbound edge should survive: %+v", in)
	}
}

func TestSymbolsByNameTieBreakOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedFile(t, s, "z.ts", sym(graph.KindFunction, "dup", "dup", 5, 10))
	seedFile(t, s, "a.ts",
		sym(graph.KindFunction, "dup", "ns1.dup", 100, 110),
		sym(graph.KindFunction, "dup", "ns2.dup", 7, 12),
	)

	got, err := s.SymbolsByName(ctx, "dup")
	if err != nil {
		t.Fatalf("SymbolsByName: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d symbols", len(got))
	}
	if got[0].Path != "a.ts" || got[0].StartByte != 7 {
		t.Fatalf("first candidate should be a.ts@7: %+v", got[0])
	}
	if got[2].Path != "z.ts" {
		t.Fatalf("last candidate should be z.ts: %+v", got[2])
	}
}

func TestSymbolsByFQSuffix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedFile(t, s, "a.ts",
		sym(graph.KindClass, "Widget", "ui.Widget", 0, 100),
		sym(graph.KindMethod, "render", "ui.Widget.render", 10, 50),
		sym(graph.KindFunction, "render", "render", 200, 250),
	)

	got, err := s.SymbolsByFQSuffix(ctx, "Widget.render")
	if err != nil {
		t.Fatalf("SymbolsByFQSuffix: %v", err)
	}
	if len(got) != 1 || got[0].FQName != "ui.Widget.render" {
		t.Fatalf("suffix match = %+v", got)
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(tx *Store) error {
		if err := tx.UpsertFile(ctx, graph.File{Path: "a.ts", Hash: "h", Language: "typescript", LastIndexed: "now"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if f, _ := s.FileByPath(ctx, "a.ts"); f != nil {
		t.Fatalf("rolled-back file visible: %+v", f)
	}
}

func TestSubscribeReceivesPublishedEvents(t *testing.T) {
	s := openTestStore(t)
	ch := s.Subscribe()

	s.Publish(graph.ChangeEvent{Type: graph.FileIndexed, Path: "a.ts"})
	ev := <-ch
	if ev.Type != graph.FileIndexed || ev.Path != "a.ts" {
		t.Fatalf("event = %+v", ev)
	}
}
