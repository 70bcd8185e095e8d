package parser

import (
	"path/filepath"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
)

// dottedName matches a plain identifier or a dot-separated identifier chain.
// Callee and supertype references that do not match (computed access, calls on
// call results) are discarded instead of guessed at.
var dottedName = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(\.[A-Za-z_$][A-Za-z0-9_$]*)*$`)

type extractor struct {
	spec *lang.Spec
	src  []byte
	path string
	res  *graph.ParseResult
}

// extract walks the AST and builds the ParseResult for one file. The walk is
// scope-driven: namespaces and type bodies push dotted scope segments, function
// bodies are scanned for call sites but never for nested declarations.
func extract(root *tree_sitter.Node, src []byte, spec *lang.Spec, path string) *graph.ParseResult {
	e := &extractor{spec: spec, src: src, path: path, res: &graph.ParseResult{}}

	e.emit(graph.Symbol{
		Kind:      graph.KindModule,
		Name:      moduleName(path),
		FQName:    ModuleFQName(path),
		StartByte: 0,
		EndByte:   int(root.EndByte()),
	})
	e.scanScope(root, "", false)
	return e.res
}

// moduleName is the file's base name without extension.
func moduleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ModuleFQName is the dotted form of the workspace-relative path without its
// extension: "src/util.ts" becomes "src.util". It is the FQName of the
// per-file module symbol.
func ModuleFQName(path string) string {
	p := strings.TrimSuffix(path, filepath.Ext(path))
	p = filepath.ToSlash(p)
	return strings.ReplaceAll(p, "/", ".")
}

func (e *extractor) emit(s graph.Symbol) {
	s.Path = e.path
	s.Language = string(e.spec.Language)
	e.res.Symbols = append(e.res.Symbols, s)
}

func (e *extractor) text(n *tree_sitter.Node) string {
	return NodeText(n, e.src)
}

// scanScope dispatches every named child of a declaration container.
func (e *extractor) scanScope(n *tree_sitter.Node, scope string, inType bool) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c != nil {
			e.decl(c, scope, inType)
		}
	}
}

func (e *extractor) decl(n *tree_sitter.Node, scope string, inType bool) {
	kind := n.Kind()
	switch {
	case hasKind(e.spec.WrapperKinds, kind):
		e.scanScope(n, scope, inType)
	case hasKind(e.spec.ImportKinds, kind) && scope == "" && !inType:
		e.importDecl(n)
	case e.spec.Language == lang.Rust && kind == "impl_item":
		e.rustImpl(n, scope)
	case hasKind(e.spec.NamespaceKinds, kind):
		e.namespaceDecl(n, scope)
	case e.spec.TypeKinds[kind] != "":
		e.typeDecl(n, scope, e.spec.TypeKinds[kind])
	case hasKind(e.spec.FunctionKinds, kind):
		e.funcDecl(n, scope, inType, false)
	case hasKind(e.spec.ConstructorKinds, kind):
		e.funcDecl(n, scope, inType, true)
	case hasKind(e.spec.VariableKinds, kind):
		e.variableDecl(n, scope)
	default:
		// Plain statements at this level (top-level calls, field
		// initializers) still contribute call sites.
		e.collectCalls(n, scope)
	}
}

// namespaceDecl pushes the namespace name onto the dotted scope and scans its
// body. Namespaces shape FQNames but are not symbols themselves.
func (e *extractor) namespaceDecl(n *tree_sitter.Node, scope string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	inner := joinScope(scope, e.text(nameNode))
	if body := n.ChildByFieldName("body"); body != nil {
		e.scanScope(body, inner, false)
		return
	}
	// C# file-scoped namespaces hold their members as direct children.
	e.scanScope(n, inner, false)
}

func (e *extractor) typeDecl(n *tree_sitter.Node, scope string, kind graph.Kind) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := e.text(nameNode)
	fq := joinScope(scope, name)

	if e.spec.Language == lang.Go && n.Kind() == "type_spec" {
		if t := n.ChildByFieldName("type"); t != nil {
			switch t.Kind() {
			case "struct_type":
				kind = graph.KindStruct
			case "interface_type":
				kind = graph.KindInterface
			}
		}
	}

	e.emit(graph.Symbol{
		Kind:      kind,
		Name:      name,
		FQName:    fq,
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	})
	e.heritage(n, fq, kind)

	if body := n.ChildByFieldName("body"); body != nil {
		e.scanScope(body, fq, true)
	}
}

func (e *extractor) funcDecl(n *tree_sitter.Node, scope string, inType, ctorKind bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		// Anonymous function; its call sites still belong to the scope.
		e.collectCalls(n, scope)
		return
	}
	name := e.text(nameNode)
	fq := joinScope(scope, name)

	kind := graph.KindFunction
	switch {
	case ctorKind, inType && hasKind(e.spec.ConstructorNames, name):
		kind = graph.KindConstructor
	case inType:
		kind = graph.KindMethod
	}
	if e.spec.Language == lang.Go && n.Kind() == "method_declaration" {
		if recv := e.goReceiverType(n); recv != "" {
			fq = joinScope(scope, recv+"."+name)
			kind = graph.KindMethod
		}
	}

	e.emit(graph.Symbol{
		Kind:      kind,
		Name:      name,
		FQName:    fq,
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	})
	// The whole subtree is scanned for calls; nested closures and local
	// declarations stay attributed to this function and produce no symbols.
	e.collectCalls(n, fq)
}

// goReceiverType extracts the receiver type name of a Go method declaration,
// looking through pointer and generic receivers.
func (e *extractor) goReceiverType(n *tree_sitter.Node) string {
	recv := n.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var name string
	Walk(recv, func(nd *tree_sitter.Node) bool {
		if nd.Kind() == "type_identifier" {
			name = e.text(nd)
			return false
		}
		return true
	})
	return name
}

func (e *extractor) variableDecl(n *tree_sitter.Node, scope string) {
	switch e.spec.Language {
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		e.jsVariables(n, scope)
	case lang.Go:
		e.goVariables(n, scope)
	case lang.Python:
		e.pyAssignment(n, scope)
	case lang.CSharp:
		e.csField(n, scope)
	case lang.Java:
		e.javaField(n, scope)
	case lang.Rust:
		e.rustItem(n, scope)
	}
}

func (e *extractor) jsVariables(n *tree_sitter.Node, scope string) {
	isConst := n.ChildCount() > 0 && e.text(n.Child(0)) == "const"
	for i := uint(0); i < n.NamedChildCount(); i++ {
		d := n.NamedChild(i)
		if d == nil || d.Kind() != "variable_declarator" {
			continue
		}
		nameNode := d.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "identifier" {
			continue // destructuring patterns bind no single symbol
		}
		name := e.text(nameNode)
		fq := joinScope(scope, name)
		value := d.ChildByFieldName("value")

		if value != nil && isFunctionValue(value.Kind()) {
			e.emit(graph.Symbol{
				Kind:      graph.KindFunction,
				Name:      name,
				FQName:    fq,
				StartByte: int(d.StartByte()),
				EndByte:   int(d.EndByte()),
			})
			e.collectCalls(value, fq)
			continue
		}

		kind := graph.KindVariable
		if isConst {
			kind = graph.KindConstant
		}
		e.emit(graph.Symbol{
			Kind:      kind,
			Name:      name,
			FQName:    fq,
			StartByte: int(d.StartByte()),
			EndByte:   int(d.EndByte()),
		})
		if value != nil {
			e.collectCalls(value, scope)
		}
	}
}

func isFunctionValue(kind string) bool {
	switch kind {
	case "arrow_function", "function_expression", "function", "generator_function":
		return true
	}
	return false
}

func (e *extractor) goVariables(n *tree_sitter.Node, scope string) {
	kind := graph.KindVariable
	if n.Kind() == "const_declaration" {
		kind = graph.KindConstant
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		s := n.NamedChild(i)
		if s == nil {
			continue
		}
		switch s.Kind() {
		case "var_spec", "const_spec":
			var names []*tree_sitter.Node
			for j := uint(0); j < s.NamedChildCount(); j++ {
				c := s.NamedChild(j)
				if c != nil && c.Kind() == "identifier" {
					names = append(names, c)
				}
			}
			// A spec declaring several names gives each symbol its own
			// identifier span so sibling ranges stay disjoint.
			for _, c := range names {
				start, end := int(s.StartByte()), int(s.EndByte())
				if len(names) > 1 {
					start, end = int(c.StartByte()), int(c.EndByte())
				}
				name := e.text(c)
				e.emit(graph.Symbol{
					Kind:      kind,
					Name:      name,
					FQName:    joinScope(scope, name),
					StartByte: start,
					EndByte:   end,
				})
			}
			e.collectCalls(s, scope)
		}
	}
}

var upperSnake = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func (e *extractor) pyAssignment(n *tree_sitter.Node, scope string) {
	left := n.ChildByFieldName("left")
	if left == nil || left.Kind() != "identifier" {
		e.collectCalls(n, scope)
		return
	}
	name := e.text(left)
	kind := graph.KindVariable
	if upperSnake.MatchString(name) {
		kind = graph.KindConstant
	}
	e.emit(graph.Symbol{
		Kind:      kind,
		Name:      name,
		FQName:    joinScope(scope, name),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	})
	if right := n.ChildByFieldName("right"); right != nil {
		e.collectCalls(right, scope)
	}
}

func (e *extractor) csField(n *tree_sitter.Node, scope string) {
	kind := graph.KindVariable
	for i := uint(0); i < n.ChildCount(); i++ {
		c := n.Child(i)
		if c != nil && c.Kind() == "modifier" && e.text(c) == "const" {
			kind = graph.KindConstant
		}
	}
	Walk(n, func(nd *tree_sitter.Node) bool {
		if nd.Kind() != "variable_declarator" {
			return true
		}
		if nameNode := nd.ChildByFieldName("name"); nameNode != nil {
			name := e.text(nameNode)
			e.emit(graph.Symbol{
				Kind:      kind,
				Name:      name,
				FQName:    joinScope(scope, name),
				StartByte: int(nd.StartByte()),
				EndByte:   int(nd.EndByte()),
			})
		}
		return false
	})
	e.collectCalls(n, scope)
}

func (e *extractor) javaField(n *tree_sitter.Node, scope string) {
	kind := graph.KindVariable
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c != nil && c.Kind() == "modifiers" && strings.Contains(e.text(c), "final") {
			kind = graph.KindConstant
		}
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		d := n.NamedChild(i)
		if d == nil || d.Kind() != "variable_declarator" {
			continue
		}
		if nameNode := d.ChildByFieldName("name"); nameNode != nil {
			name := e.text(nameNode)
			e.emit(graph.Symbol{
				Kind:      kind,
				Name:      name,
				FQName:    joinScope(scope, name),
				StartByte: int(d.StartByte()),
				EndByte:   int(d.EndByte()),
			})
		}
	}
	e.collectCalls(n, scope)
}

func (e *extractor) rustItem(n *tree_sitter.Node, scope string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	kind := graph.KindVariable
	if n.Kind() == "const_item" {
		kind = graph.KindConstant
	}
	name := e.text(nameNode)
	e.emit(graph.Symbol{
		Kind:      kind,
		Name:      name,
		FQName:    joinScope(scope, name),
		StartByte: int(n.StartByte()),
		EndByte:   int(n.EndByte()),
	})
	e.collectCalls(n, scope)
}

// rustImpl attaches impl-block methods to the implemented type and records a
// trait impl as an implements relationship.
func (e *extractor) rustImpl(n *tree_sitter.Node, scope string) {
	typeNode := n.ChildByFieldName("type")
	if typeNode == nil {
		return
	}
	typeName := baseTypeName(e.text(typeNode))
	if typeName == "" {
		return
	}
	owner := joinScope(scope, typeName)

	if tr := n.ChildByFieldName("trait"); tr != nil {
		if super := baseTypeName(e.text(tr)); super != "" {
			e.res.Heritage = append(e.res.Heritage, graph.Heritage{
				Owner: owner,
				Super: super,
				Kind:  graph.EdgeImplements,
			})
		}
	}
	if body := n.ChildByFieldName("body"); body != nil {
		e.scanScope(body, owner, true)
	}
}

// heritage records extends/implements clauses on a type declaration.
func (e *extractor) heritage(n *tree_sitter.Node, owner string, kind graph.Kind) {
	switch e.spec.Language {
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		e.jsHeritage(n, owner)
	case lang.Python:
		e.pyHeritage(n, owner)
	case lang.CSharp:
		e.csHeritage(n, owner, kind)
	case lang.Java:
		e.javaHeritage(n, owner)
	}
}

func (e *extractor) addHeritage(owner, super string, kind graph.EdgeKind) {
	super = baseTypeName(super)
	if super == "" {
		return
	}
	e.res.Heritage = append(e.res.Heritage, graph.Heritage{Owner: owner, Super: super, Kind: kind})
}

func (e *extractor) jsHeritage(n *tree_sitter.Node, owner string) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "class_heritage":
			// JS: class_heritage wraps the extended expression directly.
			// TS: it wraps extends_clause and implements_clause nodes.
			for j := uint(0); j < c.NamedChildCount(); j++ {
				h := c.NamedChild(j)
				if h == nil {
					continue
				}
				switch h.Kind() {
				case "extends_clause":
					for k := uint(0); k < h.NamedChildCount(); k++ {
						if s := h.NamedChild(k); s != nil && s.Kind() != "type_arguments" {
							e.addHeritage(owner, e.text(s), graph.EdgeInherits)
						}
					}
				case "implements_clause":
					for k := uint(0); k < h.NamedChildCount(); k++ {
						if s := h.NamedChild(k); s != nil {
							e.addHeritage(owner, e.text(s), graph.EdgeImplements)
						}
					}
				default:
					e.addHeritage(owner, e.text(h), graph.EdgeInherits)
				}
			}
		case "extends_type_clause":
			// Interface extension.
			for j := uint(0); j < c.NamedChildCount(); j++ {
				if s := c.NamedChild(j); s != nil {
					e.addHeritage(owner, e.text(s), graph.EdgeInherits)
				}
			}
		}
	}
}

func (e *extractor) pyHeritage(n *tree_sitter.Node, owner string) {
	supers := n.ChildByFieldName("superclasses")
	if supers == nil {
		return
	}
	for i := uint(0); i < supers.NamedChildCount(); i++ {
		c := supers.NamedChild(i)
		if c == nil || c.Kind() == "keyword_argument" {
			continue // metaclass= and friends
		}
		e.addHeritage(owner, e.text(c), graph.EdgeInherits)
	}
}

func (e *extractor) csHeritage(n *tree_sitter.Node, owner string, kind graph.Kind) {
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() != "base_list" {
			continue
		}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			b := c.NamedChild(j)
			if b == nil {
				continue
			}
			super := baseTypeName(e.text(b))
			if super == "" {
				continue
			}
			edge := graph.EdgeInherits
			// Only the I-prefixed bases of a class are interface
			// implementations; everything an interface lists is inheritance.
			if kind != graph.KindInterface && looksLikeInterface(super) {
				edge = graph.EdgeImplements
			}
			e.addHeritage(owner, super, edge)
		}
	}
}

// looksLikeInterface applies the C# naming convention: the last segment starts
// with a capital I followed by another capital.
func looksLikeInterface(name string) bool {
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return len(name) >= 2 && name[0] == 'I' && name[1] >= 'A' && name[1] <= 'Z'
}

func (e *extractor) javaHeritage(n *tree_sitter.Node, owner string) {
	if sc := n.ChildByFieldName("superclass"); sc != nil {
		for i := uint(0); i < sc.NamedChildCount(); i++ {
			if t := sc.NamedChild(i); t != nil {
				e.addHeritage(owner, e.text(t), graph.EdgeInherits)
			}
		}
	}
	if ifs := n.ChildByFieldName("interfaces"); ifs != nil {
		Walk(ifs, func(nd *tree_sitter.Node) bool {
			switch nd.Kind() {
			case "type_identifier", "scoped_type_identifier":
				e.addHeritage(owner, e.text(nd), graph.EdgeImplements)
				return false
			case "generic_type":
				return true
			}
			return true
		})
	}
	// interface Foo extends Bar appears as an extends_interfaces child.
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() != "extends_interfaces" {
			continue
		}
		Walk(c, func(nd *tree_sitter.Node) bool {
			switch nd.Kind() {
			case "type_identifier", "scoped_type_identifier":
				e.addHeritage(owner, e.text(nd), graph.EdgeInherits)
				return false
			}
			return true
		})
	}
}

// baseTypeName strips generic arguments and normalizes path separators,
// returning "" when the remainder is not a plain dotted name.
func baseTypeName(s string) string {
	if i := strings.IndexAny(s, "<("); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "::", ".")
	s = strings.TrimSpace(strings.TrimPrefix(s, "&"))
	s = strings.TrimPrefix(s, "dyn ")
	s = strings.TrimSpace(s)
	if !dottedName.MatchString(s) {
		return ""
	}
	return s
}

func joinScope(scope, name string) string {
	if scope == "" {
		return name
	}
	return scope + "." + name
}

func hasKind(kinds []string, kind string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
