package parser

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
)

// importDecl records an import declaration. Source stays in the language's
// own specifier form ("./util", "pkg.mod", "crate::io"); the resolver maps it
// to an indexed file later.
func (e *extractor) importDecl(n *tree_sitter.Node) {
	switch e.spec.Language {
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		e.jsImport(n)
	case lang.Python:
		e.pyImport(n)
	case lang.Go:
		e.goImport(n)
	case lang.CSharp:
		e.csImport(n)
	case lang.Rust:
		e.rustImport(n)
	case lang.Java:
		e.javaImport(n)
	}
}

func (e *extractor) addImport(imp graph.Import) {
	if imp.Source == "" {
		return
	}
	e.res.Imports = append(e.res.Imports, imp)
}

// stringContent strips the surrounding quotes of a string literal node.
func (e *extractor) stringContent(n *tree_sitter.Node) string {
	return strings.Trim(e.text(n), `"'`+"`")
}

func (e *extractor) jsImport(n *tree_sitter.Node) {
	srcNode := n.ChildByFieldName("source")
	if srcNode == nil {
		return
	}
	imp := graph.Import{Source: e.stringContent(srcNode)}

	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil || c.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < c.NamedChildCount(); j++ {
			p := c.NamedChild(j)
			if p == nil {
				continue
			}
			switch p.Kind() {
			case "identifier": // default import
				imp.Names = append(imp.Names, graph.ImportedName{Name: e.text(p)})
			case "namespace_import": // * as ns
				for k := uint(0); k < p.NamedChildCount(); k++ {
					if id := p.NamedChild(k); id != nil && id.Kind() == "identifier" {
						imp.Names = append(imp.Names, graph.ImportedName{Name: "*", Alias: e.text(id)})
					}
				}
			case "named_imports":
				for k := uint(0); k < p.NamedChildCount(); k++ {
					s := p.NamedChild(k)
					if s == nil || s.Kind() != "import_specifier" {
						continue
					}
					name := graph.ImportedName{}
					if nn := s.ChildByFieldName("name"); nn != nil {
						name.Name = e.text(nn)
					}
					if an := s.ChildByFieldName("alias"); an != nil {
						name.Alias = e.text(an)
					}
					if name.Name != "" {
						imp.Names = append(imp.Names, name)
					}
				}
			}
		}
	}
	// A bare `import "./x"` side-effect import carries no names but still
	// yields a module-to-module edge.
	e.addImport(imp)
}

func (e *extractor) pyImport(n *tree_sitter.Node) {
	if n.Kind() == "import_from_statement" {
		mod := n.ChildByFieldName("module_name")
		if mod == nil {
			return
		}
		imp := graph.Import{Source: e.text(mod)}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			c := n.NamedChild(i)
			if c == nil || c.Id() == mod.Id() {
				continue
			}
			switch c.Kind() {
			case "dotted_name", "identifier":
				imp.Names = append(imp.Names, graph.ImportedName{Name: e.text(c)})
			case "aliased_import":
				name := graph.ImportedName{}
				if nn := c.ChildByFieldName("name"); nn != nil {
					name.Name = e.text(nn)
				}
				if an := c.ChildByFieldName("alias"); an != nil {
					name.Alias = e.text(an)
				}
				if name.Name != "" {
					imp.Names = append(imp.Names, name)
				}
			case "wildcard_import":
				imp.Names = append(imp.Names, graph.ImportedName{Name: "*"})
			}
		}
		e.addImport(imp)
		return
	}

	// import a.b, c as d: one Import per module, bound as a namespace.
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "dotted_name":
			src := e.text(c)
			e.addImport(graph.Import{
				Source: src,
				Names:  []graph.ImportedName{{Name: "*", Alias: lastSegment(src)}},
			})
		case "aliased_import":
			nn := c.ChildByFieldName("name")
			an := c.ChildByFieldName("alias")
			if nn == nil {
				continue
			}
			imp := graph.Import{Source: e.text(nn)}
			local := lastSegment(imp.Source)
			if an != nil {
				local = e.text(an)
			}
			imp.Names = []graph.ImportedName{{Name: "*", Alias: local}}
			e.addImport(imp)
		}
	}
}

func (e *extractor) goImport(n *tree_sitter.Node) {
	Walk(n, func(nd *tree_sitter.Node) bool {
		if nd.Kind() != "import_spec" {
			return true
		}
		path := nd.ChildByFieldName("path")
		if path == nil {
			return false
		}
		src := e.stringContent(path)
		local := src
		if i := strings.LastIndex(local, "/"); i >= 0 {
			local = local[i+1:]
		}
		if alias := nd.ChildByFieldName("name"); alias != nil {
			local = e.text(alias)
		}
		e.addImport(graph.Import{
			Source: src,
			Names:  []graph.ImportedName{{Name: "*", Alias: local}},
		})
		return false
	})
}

func (e *extractor) csImport(n *tree_sitter.Node) {
	var source, alias string
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "identifier", "qualified_name":
			source = e.text(c)
		case "name_equals":
			for j := uint(0); j < c.NamedChildCount(); j++ {
				if id := c.NamedChild(j); id != nil {
					alias = e.text(id)
				}
			}
		}
	}
	if source == "" {
		return
	}
	local := alias
	if local == "" {
		local = lastSegment(source)
	}
	e.addImport(graph.Import{
		Source: source,
		Names:  []graph.ImportedName{{Name: "*", Alias: local}},
	})
}

func (e *extractor) rustImport(n *tree_sitter.Node) {
	arg := n.ChildByFieldName("argument")
	if arg == nil {
		return
	}
	e.rustUse(arg, "")
}

// rustUse flattens a use tree into Imports. prefix accumulates the dotted
// path above the current node.
func (e *extractor) rustUse(n *tree_sitter.Node, prefix string) {
	switch n.Kind() {
	case "identifier", "scoped_identifier", "crate", "self", "super":
		full := joinScope(prefix, rustPath(e.text(n)))
		e.addImport(graph.Import{
			Source: full,
			Names:  []graph.ImportedName{{Name: lastSegment(full)}},
		})
	case "use_as_clause":
		path := n.ChildByFieldName("path")
		alias := n.ChildByFieldName("alias")
		if path == nil {
			return
		}
		full := joinScope(prefix, rustPath(e.text(path)))
		name := graph.ImportedName{Name: lastSegment(full)}
		if alias != nil {
			name.Alias = e.text(alias)
		}
		e.addImport(graph.Import{Source: full, Names: []graph.ImportedName{name}})
	case "use_wildcard":
		full := prefix
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if p := n.NamedChild(i); p != nil {
				full = joinScope(prefix, rustPath(e.text(p)))
			}
		}
		e.addImport(graph.Import{
			Source: full,
			Names:  []graph.ImportedName{{Name: "*"}},
		})
	case "scoped_use_list":
		path := n.ChildByFieldName("path")
		list := n.ChildByFieldName("list")
		inner := prefix
		if path != nil {
			inner = joinScope(prefix, rustPath(e.text(path)))
		}
		if list != nil {
			for i := uint(0); i < list.NamedChildCount(); i++ {
				if c := list.NamedChild(i); c != nil {
					e.rustUse(c, inner)
				}
			}
		}
	case "use_list":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if c := n.NamedChild(i); c != nil {
				e.rustUse(c, prefix)
			}
		}
	}
}

func rustPath(s string) string {
	return strings.ReplaceAll(s, "::", ".")
}

func (e *extractor) javaImport(n *tree_sitter.Node) {
	var source string
	wildcard := false
	for i := uint(0); i < n.NamedChildCount(); i++ {
		c := n.NamedChild(i)
		if c == nil {
			continue
		}
		switch c.Kind() {
		case "scoped_identifier", "identifier":
			source = e.text(c)
		case "asterisk":
			wildcard = true
		}
	}
	if source == "" {
		return
	}
	name := graph.ImportedName{Name: lastSegment(source)}
	if wildcard {
		name = graph.ImportedName{Name: "*"}
	}
	e.addImport(graph.Import{Source: source, Names: []graph.ImportedName{name}})
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}
