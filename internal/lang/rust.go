package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       Rust,
		FileExtensions: []string{".rs"},
		TypeKinds: map[string]graph.Kind{
			"struct_item": graph.KindStruct,
			"enum_item":   graph.KindType,
			"trait_item":  graph.KindInterface,
			"type_item":   graph.KindType,
		},
		FunctionKinds:  []string{"function_item"},
		VariableKinds:  []string{"const_item", "static_item"},
		NamespaceKinds: []string{"mod_item"},
		CallKinds:      []string{"call_expression"},
		ImportKinds:    []string{"use_declaration"},
	})
}
