package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       JavaScript,
		FileExtensions: []string{".js", ".jsx"},
		TypeKinds: map[string]graph.Kind{
			"class_declaration": graph.KindClass,
		},
		FunctionKinds: []string{
			"function_declaration",
			"generator_function_declaration",
			"method_definition",
		},
		ConstructorNames: []string{"constructor"},
		VariableKinds:    []string{"lexical_declaration", "variable_declaration"},
		CallKinds:        []string{"call_expression"},
		NewKinds:         []string{"new_expression"},
		ImportKinds:      []string{"import_statement"},
		WrapperKinds:     []string{"export_statement"},
	})
}
