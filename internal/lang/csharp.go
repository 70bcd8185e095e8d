package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       CSharp,
		FileExtensions: []string{".cs"},
		TypeKinds: map[string]graph.Kind{
			"class_declaration":     graph.KindClass,
			"record_declaration":    graph.KindClass,
			"struct_declaration":    graph.KindStruct,
			"interface_declaration": graph.KindInterface,
			"enum_declaration":      graph.KindType,
		},
		FunctionKinds:    []string{"method_declaration"},
		ConstructorKinds: []string{"constructor_declaration"},
		VariableKinds:    []string{"field_declaration"},
		NamespaceKinds: []string{
			"namespace_declaration",
			"file_scoped_namespace_declaration",
		},
		CallKinds:   []string{"invocation_expression"},
		NewKinds:    []string{"object_creation_expression"},
		ImportKinds: []string{"using_directive"},
	})
}
