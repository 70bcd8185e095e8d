package parser

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
)

// collectCalls walks a subtree and records every call and construction site,
// attributed to caller (the FQName of the enclosing function, or "" for
// module level). Call sites whose target is not a plain dotted name (calls on
// call results, computed member access) are skipped.
func (e *extractor) collectCalls(n *tree_sitter.Node, caller string) {
	Walk(n, func(nd *tree_sitter.Node) bool {
		kind := nd.Kind()
		if hasKind(e.spec.CallKinds, kind) {
			e.callSite(nd, caller)
		}
		if hasKind(e.spec.NewKinds, kind) {
			e.constructionSite(nd, caller)
		}
		return true
	})
}

func (e *extractor) addCall(caller, callee string, construction bool) {
	if callee == "" || !dottedName.MatchString(callee) {
		return
	}
	e.res.Calls = append(e.res.Calls, graph.Call{
		Caller:       caller,
		Callee:       callee,
		Construction: construction,
	})
}

func (e *extractor) callSite(n *tree_sitter.Node, caller string) {
	if e.spec.Language == lang.Java {
		e.javaCallSite(n, caller)
		return
	}
	fn := n.ChildByFieldName("function")
	if fn == nil {
		return
	}
	e.addCall(caller, e.calleeName(fn), false)
}

// calleeName reduces a callee expression to a dotted name. Receivers that are
// themselves construction expressions yield Type.method so a chained
// `new Foo().bar()` links to the method; the construction itself is recorded
// separately when the walk reaches the inner node.
func (e *extractor) calleeName(fn *tree_sitter.Node) string {
	switch fn.Kind() {
	case "identifier", "type_identifier", "field_identifier":
		return e.text(fn)
	case "member_expression": // TS/JS
		return e.memberCallee(fn, "object", "property")
	case "attribute": // Python
		return e.memberCallee(fn, "object", "attribute")
	case "selector_expression": // Go
		return e.memberCallee(fn, "operand", "field")
	case "member_access_expression": // C#
		return e.memberCallee(fn, "expression", "name")
	case "field_expression": // Rust method call
		return e.memberCallee(fn, "value", "field")
	case "scoped_identifier": // Rust path call
		return baseTypeName(e.text(fn))
	case "generic_function": // Rust turbofish
		if inner := fn.ChildByFieldName("function"); inner != nil {
			return e.calleeName(inner)
		}
	}
	txt := e.text(fn)
	if dottedName.MatchString(txt) {
		return txt
	}
	return ""
}

func (e *extractor) memberCallee(fn *tree_sitter.Node, objField, nameField string) string {
	nameNode := fn.ChildByFieldName(nameField)
	if nameNode == nil {
		return ""
	}
	name := e.text(nameNode)
	obj := fn.ChildByFieldName(objField)
	if obj == nil {
		return name
	}
	if hasKind(e.spec.NewKinds, obj.Kind()) {
		if t := e.constructedType(obj); t != "" {
			return t + "." + name
		}
		return name
	}
	objText := baseTypeName(e.text(obj))
	if objText == "" {
		return name
	}
	return objText + "." + name
}

// javaCallSite handles method_invocation, whose grammar names the receiver
// and method as separate fields instead of a member expression.
func (e *extractor) javaCallSite(n *tree_sitter.Node, caller string) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	callee := e.text(nameNode)
	if obj := n.ChildByFieldName("object"); obj != nil {
		if hasKind(e.spec.NewKinds, obj.Kind()) {
			if t := e.constructedType(obj); t != "" {
				callee = t + "." + callee
			}
		} else if objText := baseTypeName(e.text(obj)); objText != "" {
			callee = objText + "." + callee
		}
	}
	e.addCall(caller, callee, false)
}

func (e *extractor) constructionSite(n *tree_sitter.Node, caller string) {
	e.addCall(caller, e.constructedType(n), true)
}

// constructedType names the type a construction expression instantiates.
func (e *extractor) constructedType(n *tree_sitter.Node) string {
	var t *tree_sitter.Node
	switch e.spec.Language {
	case lang.TypeScript, lang.TSX, lang.JavaScript:
		t = n.ChildByFieldName("constructor")
	default: // C#, Java object_creation_expression
		t = n.ChildByFieldName("type")
	}
	if t == nil {
		return ""
	}
	return baseTypeName(e.text(t))
}
