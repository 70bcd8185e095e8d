package indexer

import (
	"context"
	"path"
	"strings"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
	"codegraph/internal/store"
)

// receiverKeywords are stripped from the front of a dotted callee; the
// remainder resolves against the enclosing file first.
var receiverKeywords = map[string]bool{
	"this":  true,
	"self":  true,
	"super": true,
	"base":  true,
}

// builtinReceivers are runtime globals whose member calls must not be force-
// matched to unrelated symbols by the simple-name fallback tier.
var builtinReceivers = map[string]bool{
	"console":  true,
	"window":   true,
	"document": true,
	"Math":     true,
	"JSON":     true,
	"Object":   true,
	"Promise":  true,
	"process":  true,
}

// binding is one imported local name: the file it came from and the original
// exported name ("*" when the local names the whole module).
type binding struct {
	path string
	name string
}

// fileScope is the symbol index of a single file, the unit tier-1 resolution
// works against.
type fileScope struct {
	path    string
	symbols []graph.Symbol
	module  *graph.Symbol
	byFQ    map[string]*graph.Symbol
	byName  map[string][]*graph.Symbol
}

// resolver resolves one file's held references against the stored node index.
// File scopes are cached for the duration of a resolution run.
type resolver struct {
	ctx    context.Context
	s      *store.Store
	scopes map[string]*fileScope
}

func newResolver(ctx context.Context, s *store.Store) *resolver {
	return &resolver{ctx: ctx, s: s, scopes: map[string]*fileScope{}}
}

func (r *resolver) scope(p string) (*fileScope, error) {
	if sc, ok := r.scopes[p]; ok {
		return sc, nil
	}
	symbols, err := r.s.SymbolsForFile(r.ctx, p)
	if err != nil {
		return nil, err
	}
	sc := &fileScope{
		path:    p,
		symbols: symbols,
		byFQ:    map[string]*graph.Symbol{},
		byName:  map[string][]*graph.Symbol{},
	}
	for i := range symbols {
		sym := &symbols[i]
		if sym.Kind == graph.KindModule && sc.module == nil {
			sc.module = sym
			continue
		}
		if _, ok := sc.byFQ[sym.FQName]; !ok {
			sc.byFQ[sym.FQName] = sym
		}
		sc.byName[sym.Name] = append(sc.byName[sym.Name], sym)
	}
	r.scopes[p] = sc
	return sc, nil
}

// resolveFile turns a file's held references into edges. Unresolved
// references are dropped, never stored dangling.
func (r *resolver) resolveFile(p string, refs *fileRefs) ([]graph.Edge, error) {
	sc, err := r.scope(p)
	if err != nil {
		return nil, err
	}
	if len(sc.symbols) == 0 {
		return nil, nil
	}

	set := newEdgeSet()
	r.containsEdges(sc, set)

	bindings, err := r.importEdges(sc, refs.Imports, set)
	if err != nil {
		return nil, err
	}

	for _, call := range refs.Calls {
		src := r.callerSymbol(sc, call.Caller)
		if src == nil {
			continue
		}
		dst, err := r.resolveName(sc, bindings, call.Callee, call.Construction)
		if err != nil {
			return nil, err
		}
		if dst != nil {
			set.add(src.ID, dst.ID, graph.EdgeCalls)
		}
		// A dotted callee whose head names a type yields a second edge to
		// the type itself: static-member use still counts as use.
		if !call.Construction {
			if head, rest, ok := strings.Cut(call.Callee, "."); ok && rest != "" {
				t, err := r.resolveName(sc, bindings, head, true)
				if err != nil {
					return nil, err
				}
				if t != nil && (dst == nil || t.ID != dst.ID) {
					set.add(src.ID, t.ID, graph.EdgeCalls)
				}
			}
		}
	}

	for _, h := range refs.Heritage {
		src := sc.byFQ[h.Owner]
		if src == nil {
			continue
		}
		dst, err := r.resolveName(sc, bindings, h.Super, true)
		if err != nil {
			return nil, err
		}
		if dst != nil && dst.ID != src.ID {
			set.add(src.ID, dst.ID, h.Kind)
		}
	}
	return set.edges, nil
}

// containsEdges links each symbol to its nearest enclosing symbol by FQName
// prefix, or to the file's module symbol for top-level declarations.
func (r *resolver) containsEdges(sc *fileScope, set *edgeSet) {
	for i := range sc.symbols {
		sym := &sc.symbols[i]
		if sc.module != nil && sym.ID == sc.module.ID {
			continue
		}
		parent := r.enclosing(sc, sym)
		if parent != nil && parent.ID != sym.ID {
			set.add(parent.ID, sym.ID, graph.EdgeContains)
		}
	}
}

func (r *resolver) enclosing(sc *fileScope, sym *graph.Symbol) *graph.Symbol {
	fq := sym.FQName
	for {
		i := strings.LastIndex(fq, ".")
		if i < 0 {
			return sc.module
		}
		fq = fq[:i]
		if parent, ok := sc.byFQ[fq]; ok && parent.ID != sym.ID {
			return parent
		}
	}
}

func (r *resolver) callerSymbol(sc *fileScope, caller string) *graph.Symbol {
	if caller == "" {
		return sc.module
	}
	if sym, ok := sc.byFQ[caller]; ok {
		return sym
	}
	return sc.module
}

// importEdges resolves import sources to module symbols, emits module-level
// imports edges, and returns the local-name bindings used by call resolution.
func (r *resolver) importEdges(sc *fileScope, imports []graph.Import, set *edgeSet) (map[string]binding, error) {
	bindings := map[string]binding{}
	for _, imp := range imports {
		target, err := r.resolveModule(imp.Source, sc.path)
		if err != nil {
			return nil, err
		}
		if target == nil || target.Path == sc.path {
			continue
		}
		if sc.module != nil {
			set.add(sc.module.ID, target.ID, graph.EdgeImports)
		}
		for _, n := range imp.Names {
			local := n.Local()
			if local == "" || local == "*" {
				continue
			}
			bindings[local] = binding{path: target.Path, name: n.Name}
		}
	}
	return bindings, nil
}

// resolveModule maps an import specifier to the module symbol of an indexed
// file. Relative specifiers resolve against the importing file's directory;
// absolute ones match module FQNames.
func (r *resolver) resolveModule(source, fromPath string) (*graph.Symbol, error) {
	for _, cand := range moduleCandidatePaths(source, fromPath) {
		sc, err := r.scope(cand)
		if err != nil {
			return nil, err
		}
		if sc.module != nil {
			return sc.module, nil
		}
	}

	// Absolute specifier: match against module FQNames workspace-wide.
	dotted := strings.ReplaceAll(strings.ReplaceAll(source, "::", "."), "/", ".")
	dotted = strings.Trim(dotted, ".")
	if dotted == "" {
		return nil, nil
	}
	for _, fq := range []string{dotted, dotted + ".__init__"} {
		exact, err := r.s.SymbolsByFQName(r.ctx, fq)
		if err != nil {
			return nil, err
		}
		if m := firstModule(exact); m != nil {
			return m, nil
		}
	}
	suffix, err := r.s.SymbolsByFQSuffix(r.ctx, dotted)
	if err != nil {
		return nil, err
	}
	return firstModule(suffix), nil
}

// moduleCandidatePaths expands a relative specifier into the workspace paths
// it could denote, in preference order. Slash-form specifiers ("./util") are
// resolved TS/JS style with extension and index-file probing; dot-form ones
// (".util", "..pkg.mod") follow Python package semantics.
func moduleCandidatePaths(source, fromPath string) []string {
	dir := path.Dir(fromPath)

	if strings.HasPrefix(source, "./") || strings.HasPrefix(source, "../") {
		base := path.Join(dir, source)
		if lang.ForPath(base) != nil {
			return []string{base}
		}
		exts := []string{".ts", ".tsx", ".js", ".jsx"}
		out := make([]string, 0, 2*len(exts))
		for _, ext := range exts {
			out = append(out, base+ext)
		}
		for _, ext := range exts {
			out = append(out, path.Join(base, "index"+ext))
		}
		return out
	}

	if strings.HasPrefix(source, ".") {
		dots := 0
		for dots < len(source) && source[dots] == '.' {
			dots++
		}
		base := dir
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		rest := strings.ReplaceAll(source[dots:], ".", "/")
		if rest == "" {
			return []string{path.Join(base, "__init__.py")}
		}
		p := path.Join(base, rest)
		return []string{p + ".py", path.Join(p, "__init__.py")}
	}
	return nil
}

func firstModule(symbols []graph.Symbol) *graph.Symbol {
	for i := range symbols {
		if symbols[i].Kind == graph.KindModule {
			return &symbols[i]
		}
	}
	return nil
}

// resolveName maps a (possibly dotted) reference to a stored symbol.
//
// Tiers, first hit wins: same-file FQName or bare name; imported binding;
// workspace FQName exact; workspace FQName suffix; workspace simple name
// (last segment). Within a tier, ambiguity breaks deterministically on
// (file path, start offset) ascending.
func (r *resolver) resolveName(sc *fileScope, bindings map[string]binding, name string, typeOnly bool) (*graph.Symbol, error) {
	segs := strings.Split(name, ".")
	if receiverKeywords[segs[0]] {
		if len(segs) == 1 {
			return nil, nil
		}
		segs = segs[1:]
		name = strings.Join(segs, ".")
	}
	if builtinReceivers[segs[0]] {
		return nil, nil
	}

	// Same file.
	if sym, ok := sc.byFQ[name]; ok && targetOK(sym, typeOnly) {
		return sym, nil
	}
	if len(segs) == 1 {
		if sym := firstOK(sc.byName[name], typeOnly); sym != nil {
			return sym, nil
		}
	}

	// Imported binding on the head segment.
	if b, ok := bindings[segs[0]]; ok {
		sym, err := r.resolveBound(b, segs[1:], typeOnly)
		if err != nil {
			return nil, err
		}
		if sym != nil {
			return sym, nil
		}
	}

	// Workspace-wide FQName, exact then suffix.
	exact, err := r.s.SymbolsByFQName(r.ctx, name)
	if err != nil {
		return nil, err
	}
	if sym := firstStoredOK(exact, typeOnly); sym != nil {
		return sym, nil
	}
	suffix, err := r.s.SymbolsByFQSuffix(r.ctx, name)
	if err != nil {
		return nil, err
	}
	if sym := firstStoredOK(suffix, typeOnly); sym != nil {
		return sym, nil
	}

	// Simple name, workspace-wide.
	last := segs[len(segs)-1]
	byName, err := r.s.SymbolsByName(r.ctx, last)
	if err != nil {
		return nil, err
	}
	return firstStoredOK(byName, typeOnly), nil
}

// resolveBound looks a reference up inside the file an import binding points
// at. rest is everything after the bound local name.
func (r *resolver) resolveBound(b binding, rest []string, typeOnly bool) (*graph.Symbol, error) {
	target, err := r.scope(b.path)
	if err != nil {
		return nil, err
	}
	var lookup string
	if b.name == "*" {
		// Namespace binding: the member path resolves inside the module.
		if len(rest) == 0 {
			if target.module != nil {
				return target.module, nil
			}
			return nil, nil
		}
		lookup = strings.Join(rest, ".")
	} else {
		lookup = strings.Join(append([]string{b.name}, rest...), ".")
	}
	if sym, ok := target.byFQ[lookup]; ok && targetOK(sym, typeOnly) {
		return sym, nil
	}
	if !strings.Contains(lookup, ".") {
		return firstOK(target.byName[lookup], typeOnly), nil
	}
	return nil, nil
}

func targetOK(sym *graph.Symbol, typeOnly bool) bool {
	if sym.Kind == graph.KindModule {
		return false
	}
	return !typeOnly || sym.Kind.TypeLike()
}

func firstOK(candidates []*graph.Symbol, typeOnly bool) *graph.Symbol {
	for _, sym := range candidates {
		if targetOK(sym, typeOnly) {
			return sym
		}
	}
	return nil
}

func firstStoredOK(candidates []graph.Symbol, typeOnly bool) *graph.Symbol {
	for i := range candidates {
		if targetOK(&candidates[i], typeOnly) {
			return &candidates[i]
		}
	}
	return nil
}

// edgeSet accumulates edges with (src, dst, kind) dedup.
type edgeSet struct {
	seen  map[[2]int64]map[graph.EdgeKind]bool
	edges []graph.Edge
}

func newEdgeSet() *edgeSet {
	return &edgeSet{seen: map[[2]int64]map[graph.EdgeKind]bool{}}
}

func (s *edgeSet) add(src, dst int64, kind graph.EdgeKind) {
	key := [2]int64{src, dst}
	kinds, ok := s.seen[key]
	if !ok {
		kinds = map[graph.EdgeKind]bool{}
		s.seen[key] = kinds
	}
	if kinds[kind] {
		return
	}
	kinds[kind] = true
	s.edges = append(s.edges, graph.Edge{SrcID: src, DstID: dst, Kind: kind})
}
