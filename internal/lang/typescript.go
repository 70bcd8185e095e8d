package lang

import "codegraph/internal/graph"

func tsSpec(language Language, exts []string) *Spec {
	return &Spec{
		Language:       language,
		FileExtensions: exts,
		TypeKinds: map[string]graph.Kind{
			"class_declaration":          graph.KindClass,
			"abstract_class_declaration": graph.KindClass,
			"interface_declaration":      graph.KindInterface,
			"type_alias_declaration":     graph.KindType,
			"enum_declaration":           graph.KindType,
		},
		FunctionKinds: []string{
			"function_declaration",
			"generator_function_declaration",
			"method_definition",
		},
		ConstructorNames: []string{"constructor"},
		VariableKinds:    []string{"lexical_declaration", "variable_declaration"},
		NamespaceKinds:   []string{"internal_module"},
		CallKinds:        []string{"call_expression"},
		NewKinds:         []string{"new_expression"},
		ImportKinds:      []string{"import_statement"},
		WrapperKinds:     []string{"export_statement", "ambient_declaration"},
	}
}

func init() {
	Register(tsSpec(TypeScript, []string{".ts"}))
	Register(tsSpec(TSX, []string{".tsx"}))
}
