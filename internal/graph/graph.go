// Package graph defines the symbol/relationship data model shared by the
// parser, the store, and the indexer.
package graph

// Kind classifies a symbol node.
type Kind string

const (
	KindFunction    Kind = "function"
	KindMethod      Kind = "method"
	KindConstructor Kind = "constructor"
	KindClass       Kind = "class"
	KindStruct      Kind = "struct"
	KindInterface   Kind = "interface"
	KindType        Kind = "type"
	KindVariable    Kind = "variable"
	KindConstant    Kind = "constant"
	// KindModule is the per-file symbol spanning the whole file. Import and
	// top-level containment edges hang off it.
	KindModule Kind = "module"
)

// TypeLike reports whether a kind names a type declaration. Construction
// calls and heritage clauses resolve only against these.
func (k Kind) TypeLike() bool {
	switch k {
	case KindClass, KindStruct, KindInterface, KindType:
		return true
	}
	return false
}

// EdgeKind classifies a relationship between two symbols.
type EdgeKind string

const (
	EdgeImports    EdgeKind = "imports"
	EdgeCalls      EdgeKind = "calls"
	EdgeImplements EdgeKind = "implements"
	EdgeInherits   EdgeKind = "inherits"
	EdgeContains   EdgeKind = "contains"
)

// Symbol is a single code entity extracted from one file. StartByte and
// EndByte are byte offsets into the file content; a method's range nests
// inside its class's range, sibling ranges do not overlap.
type Symbol struct {
	ID        int64
	Kind      Kind
	Name      string
	FQName    string // dotted scope path, e.g. "Widget.render"
	Path      string
	StartByte int
	EndByte   int
	Language  string
}

// Edge is a directed relationship between two stored symbols. Endpoints
// always exist at commit time; unresolved references are dropped, never
// stored dangling.
type Edge struct {
	ID    int64
	SrcID int64
	DstID int64
	Kind  EdgeKind
}

// File is the per-path metadata record. Hash is an xxh3 content hash used to
// skip re-parsing unchanged content.
type File struct {
	Path        string
	Hash        string
	Language    string
	LastIndexed string
}

// ImportedName is one identifier bound by an import declaration. Alias is
// empty when the name is bound as-is; Name is "*" for namespace imports.
type ImportedName struct {
	Name  string
	Alias string
}

// Local returns the identifier the import binds in the importing file.
func (n ImportedName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// Import is a transient import declaration, consumed during edge resolution
// and never persisted.
type Import struct {
	Source string
	Names  []ImportedName
}

// Call is a transient call site. Caller is the FQName of the enclosing
// function or method ("" for module-level calls). Construction marks
// `new Type(...)` sites so the resolver links the constructed type itself.
type Call struct {
	Caller       string
	Callee       string
	Construction bool
}

// Heritage is a transient extends/implements clause on a type declaration.
type Heritage struct {
	Owner string // FQName of the declaring type
	Super string // referenced supertype name, possibly dotted
	Kind  EdgeKind
}

// ParseResult is the output of parsing one file. Symbols are persisted;
// Imports, Calls, and Heritage are held in memory by the indexer until edge
// resolution.
type ParseResult struct {
	Symbols  []Symbol
	Imports  []Import
	Calls    []Call
	Heritage []Heritage
}

// ChangeEventType distinguishes store change notifications.
type ChangeEventType string

const (
	FileIndexed ChangeEventType = "indexed"
	FileRemoved ChangeEventType = "removed"
)

// ChangeEvent notifies consumers that a file's slice of the graph changed.
type ChangeEvent struct {
	Type ChangeEventType
	Path string
}
