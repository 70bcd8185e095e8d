package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       Java,
		FileExtensions: []string{".java"},
		TypeKinds: map[string]graph.Kind{
			"class_declaration":     graph.KindClass,
			"record_declaration":    graph.KindClass,
			"interface_declaration": graph.KindInterface,
			"enum_declaration":      graph.KindType,
		},
		FunctionKinds:    []string{"method_declaration"},
		ConstructorKinds: []string{"constructor_declaration"},
		VariableKinds:    []string{"field_declaration"},
		CallKinds:        []string{"method_invocation"},
		NewKinds:         []string{"object_creation_expression"},
		ImportKinds:      []string{"import_declaration"},
	})
}
