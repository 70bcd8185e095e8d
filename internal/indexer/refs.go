package indexer

import (
	"sort"
	"strings"

	"codegraph/internal/graph"
)

// fileRefs is the transient reference set of one parsed file, held in memory
// between node commit and edge resolution, and kept afterwards so the file
// can be re-resolved without re-parsing when a symbol it references appears
// or disappears elsewhere.
type fileRefs struct {
	Imports  []graph.Import
	Calls    []graph.Call
	Heritage []graph.Heritage
}

func newFileRefs(res *graph.ParseResult) *fileRefs {
	return &fileRefs{Imports: res.Imports, Calls: res.Calls, Heritage: res.Heritage}
}

// names returns every identifier segment the file references. The reverse
// index is keyed on these, so any file whose symbol set gains or loses one of
// them triggers re-resolution here.
func (r *fileRefs) names() map[string]struct{} {
	out := map[string]struct{}{}
	add := func(dotted string) {
		for _, seg := range strings.Split(dotted, ".") {
			if seg != "" && seg != "*" {
				out[seg] = struct{}{}
			}
		}
	}
	for _, imp := range r.Imports {
		add(imp.Source)
		for _, n := range imp.Names {
			add(n.Name)
		}
	}
	for _, c := range r.Calls {
		add(c.Callee)
	}
	for _, h := range r.Heritage {
		add(h.Super)
	}
	return out
}

// refIndex maps referenced identifier segments to the files referencing them.
type refIndex struct {
	byFile map[string]*fileRefs
	byName map[string]map[string]struct{} // name -> set of paths
}

func newRefIndex() *refIndex {
	return &refIndex{
		byFile: map[string]*fileRefs{},
		byName: map[string]map[string]struct{}{},
	}
}

func (ri *refIndex) get(path string) *fileRefs {
	return ri.byFile[path]
}

// set replaces a file's references, keeping the reverse index consistent.
func (ri *refIndex) set(path string, refs *fileRefs) {
	ri.remove(path)
	ri.byFile[path] = refs
	for name := range refs.names() {
		set, ok := ri.byName[name]
		if !ok {
			set = map[string]struct{}{}
			ri.byName[name] = set
		}
		set[path] = struct{}{}
	}
}

func (ri *refIndex) remove(path string) {
	old, ok := ri.byFile[path]
	if !ok {
		return
	}
	delete(ri.byFile, path)
	for name := range old.names() {
		if set, ok := ri.byName[name]; ok {
			delete(set, path)
			if len(set) == 0 {
				delete(ri.byName, name)
			}
		}
	}
}

// referencers returns, sorted, every file referencing any of the given simple
// names, excluding the file named by skip.
func (ri *refIndex) referencers(names map[string]struct{}, skip string) []string {
	set := map[string]struct{}{}
	for name := range names {
		for path := range ri.byName[name] {
			if path != skip {
				set[path] = struct{}{}
			}
		}
	}
	out := make([]string, 0, len(set))
	for path := range set {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// symbolNames collects the simple names of a symbol set.
func symbolNames(symbols []graph.Symbol) map[string]struct{} {
	out := map[string]struct{}{}
	for _, s := range symbols {
		out[s.Name] = struct{}{}
	}
	return out
}

// mergeNames unions name sets in place.
func mergeNames(dst, src map[string]struct{}) map[string]struct{} {
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}
