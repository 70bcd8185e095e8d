package lang

import (
	"path/filepath"

	"codegraph/internal/graph"
)

// Language identifies a supported programming language.
type Language string

const (
	TypeScript Language = "typescript"
	TSX        Language = "tsx"
	JavaScript Language = "javascript"
	Python     Language = "python"
	CSharp     Language = "csharp"
	Go         Language = "go"
	Rust       Language = "rust"
	Java       Language = "java"
)

// AllLanguages returns all supported languages.
func AllLanguages() []Language {
	return []Language{TypeScript, TSX, JavaScript, Python, CSharp, Go, Rust, Java}
}

// Spec defines the tree-sitter node kinds the extractor reacts to for one
// language. Kinds absent from a list are simply not extracted for that
// language (best-effort, per contract).
type Spec struct {
	Language       Language
	FileExtensions []string

	// TypeKinds maps type declaration node kinds to the symbol kind they
	// produce (class/struct/interface/type).
	TypeKinds map[string]graph.Kind
	// FunctionKinds are function/method declaration node kinds.
	FunctionKinds []string
	// ConstructorKinds are node kinds that are constructors by grammar
	// (e.g. C# constructor_declaration).
	ConstructorKinds []string
	// ConstructorNames are method names that mark a constructor
	// (e.g. "constructor" in TS, "__init__" in Python).
	ConstructorNames []string
	// VariableKinds are variable/constant declaration node kinds considered
	// at file scope and class scope only.
	VariableKinds []string
	// NamespaceKinds are namespace/module wrapper kinds whose name joins the
	// dotted scope path of everything inside.
	NamespaceKinds []string
	// CallKinds are call expression node kinds.
	CallKinds []string
	// NewKinds are object construction node kinds.
	NewKinds []string
	// ImportKinds are import declaration node kinds.
	ImportKinds []string
	// WrapperKinds are declaration wrappers the extractor descends through
	// transparently (e.g. export_statement, type_declaration,
	// decorated_definition).
	WrapperKinds []string
}

// registry maps file extensions to language specs.
var registry = map[string]*Spec{}

// Register adds a Spec to the global registry.
func Register(spec *Spec) {
	for _, ext := range spec.FileExtensions {
		registry[ext] = spec
	}
}

// ForExtension returns the Spec for a file extension (e.g. ".ts").
func ForExtension(ext string) *Spec {
	return registry[ext]
}

// ForLanguage returns the Spec for a language.
func ForLanguage(l Language) *Spec {
	for _, spec := range registry {
		if spec.Language == l {
			return spec
		}
	}
	return nil
}

// ForPath returns the Spec for a file path. Compound extensions such as
// ".xaml.cs" resolve through the final real extension.
func ForPath(path string) *Spec {
	return registry[filepath.Ext(path)]
}

// LanguageForPath returns the Language for a file path, or "" and false when
// the extension maps to no supported language.
func LanguageForPath(path string) (Language, bool) {
	spec := ForPath(path)
	if spec == nil {
		return "", false
	}
	return spec.Language, true
}
