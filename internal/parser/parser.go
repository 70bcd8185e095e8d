// Package parser turns raw file text into symbols, imports, and call sites.
//
// Grammar parsers are constructed fresh for every parse call and closed
// afterwards. A tree-sitter parser carries internal mutable state that can be
// left corrupted after an internal fault; reusing such an instance cascades
// failures onto every subsequent file, and instantiation is cheap relative to
// parse time.
package parser

import (
	"bytes"
	"fmt"
	"log/slog"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
)

// MaxFileSize is the parse size ceiling in bytes. Content above it is skipped
// with an empty symbol set; a performance bound, not a correctness one.
const MaxFileSize = 200000

var (
	languagesOnce sync.Once
	languages     map[lang.Language]*tree_sitter.Language
)

func initLanguages() {
	languagesOnce.Do(func() {
		languages = map[lang.Language]*tree_sitter.Language{
			lang.TypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			lang.TSX:        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
			lang.JavaScript: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			lang.Python:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
			lang.CSharp:     tree_sitter.NewLanguage(tree_sitter_c_sharp.Language()),
			lang.Go:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
			lang.Rust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
			lang.Java:       tree_sitter.NewLanguage(tree_sitter_java.Language()),
		}
	})
}

// NewParser returns a fresh tree-sitter parser configured for the language.
// The caller must Close it. Instances are never cached or shared.
func NewParser(l lang.Language) (*tree_sitter.Parser, error) {
	initLanguages()
	tsLang, ok := languages[l]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", l)
	}
	p := tree_sitter.NewParser()
	if err := p.SetLanguage(tsLang); err != nil {
		p.Close()
		return nil, fmt.Errorf("set language %s: %w", l, err)
	}
	return p, nil
}

// Parse extracts symbols, imports, and call sites from one file.
//
// It returns (nil, nil) when the file extension maps to no supported
// language. Content containing a NUL byte or exceeding MaxFileSize yields an
// empty result. A fault inside grammar extraction is caught locally and
// delegates to the pattern-based fallback extractor; Parse never propagates a
// parse fault.
func Parse(path string, content []byte) (*graph.ParseResult, error) {
	spec := lang.ForPath(path)
	if spec == nil {
		return nil, nil
	}

	if len(content) > MaxFileSize {
		slog.Warn("parse.skip", "path", path, "reason", "too_large", "bytes", len(content))
		return &graph.ParseResult{}, nil
	}
	if bytes.IndexByte(content, 0) >= 0 {
		slog.Warn("parse.skip", "path", path, "reason", "binary")
		return &graph.ParseResult{}, nil
	}

	content = stripBOM(content)

	res, err := grammarParse(path, content, spec)
	if err != nil {
		slog.Warn("parse.fallback", "path", path, "lang", spec.Language, "err", err)
		return FallbackParse(path, content, spec), nil
	}
	return res, nil
}

// grammarParse runs the tree-sitter extraction. Any panic inside the grammar
// walk is converted into an error so the caller can divert to the fallback.
func grammarParse(path string, content []byte, spec *lang.Spec) (res *graph.ParseResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("parser fault: %v", r)
		}
	}()

	p, err := NewParser(spec.Language)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	tree := p.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("nil tree for %s", path)
	}
	defer tree.Close()

	return extract(tree.RootNode(), content, spec, path), nil
}

// WalkFunc is called for each node during AST traversal.
// Return false to skip children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses the AST in depth-first order.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the text content of a node.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// stripBOM removes a UTF-8 byte order mark (common in C#/Windows files).
func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
