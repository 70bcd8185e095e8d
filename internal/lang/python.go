package lang

import "codegraph/internal/graph"

func init() {
	Register(&Spec{
		Language:       Python,
		FileExtensions: []string{".py"},
		TypeKinds: map[string]graph.Kind{
			"class_definition": graph.KindClass,
		},
		FunctionKinds:    []string{"function_definition"},
		ConstructorNames: []string{"__init__"},
		VariableKinds:    []string{"assignment"},
		CallKinds:        []string{"call"},
		ImportKinds:      []string{"import_statement", "import_from_statement"},
		WrapperKinds:     []string{"expression_statement", "decorated_definition"},
	})
}
