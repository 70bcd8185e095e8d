package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       Go,
		FileExtensions: []string{".go"},
		TypeKinds: map[string]graph.Kind{
			// type_spec resolves to struct/interface/type by its type child.
			"type_spec":  graph.KindType,
			"type_alias": graph.KindType,
		},
		FunctionKinds: []string{"function_declaration", "method_declaration"},
		VariableKinds: []string{"var_declaration", "const_declaration"},
		CallKinds:     []string{"call_expression"},
		ImportKinds:   []string{"import_declaration"},
		WrapperKinds:  []string{"type_declaration"},
	})
}
