package parser

import (
	"regexp"
	"strings"

	"codegraph/internal/graph"
	"codegraph/internal/lang"
)

// Pattern-based extraction used when grammar parsing faults. It recovers
// top-level declarations only: no nesting, no calls, no heritage. FQNames
// collapse to plain names, which keeps the symbols queryable even if less
// precise than a grammar pass.

type fallbackPattern struct {
	re   *regexp.Regexp
	kind graph.Kind
}

func fp(kind graph.Kind, expr string) fallbackPattern {
	return fallbackPattern{re: regexp.MustCompile(expr), kind: kind}
}

var fallbackPatterns = map[lang.Language][]fallbackPattern{
	lang.TypeScript: tsFallback,
	lang.TSX:        tsFallback,
	lang.JavaScript: {
		fp(graph.KindClass, `^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$][\w$]*)`),
		fp(graph.KindFunction, `^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
		fp(graph.KindConstant, `^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)`),
		fp(graph.KindVariable, `^\s*(?:export\s+)?(?:let|var)\s+([A-Za-z_$][\w$]*)`),
	},
	lang.Python: {
		fp(graph.KindClass, `^class\s+([A-Za-z_]\w*)`),
		fp(graph.KindFunction, `^(?:async\s+)?def\s+([A-Za-z_]\w*)`),
		fp(graph.KindConstant, `^([A-Z][A-Z0-9_]*)\s*=`),
	},
	lang.CSharp: {
		fp(graph.KindClass, `^\s*(?:\[[^\]]*\]\s*)?(?:public|internal|private|protected|static|sealed|abstract|partial|\s)*class\s+([A-Za-z_]\w*)`),
		fp(graph.KindInterface, `^\s*(?:public|internal|private|protected|\s)*interface\s+([A-Za-z_]\w*)`),
		fp(graph.KindStruct, `^\s*(?:public|internal|private|protected|readonly|\s)*struct\s+([A-Za-z_]\w*)`),
		fp(graph.KindType, `^\s*(?:public|internal|private|protected|\s)*enum\s+([A-Za-z_]\w*)`),
	},
	lang.Go: {
		fp(graph.KindFunction, `^func\s+(?:\([^)]*\)\s+)?([A-Za-z_]\w*)`),
		fp(graph.KindType, `^type\s+([A-Za-z_]\w*)`),
		fp(graph.KindConstant, `^const\s+([A-Za-z_]\w*)`),
		fp(graph.KindVariable, `^var\s+([A-Za-z_]\w*)`),
	},
	lang.Rust: {
		fp(graph.KindFunction, `^\s*(?:pub(?:\([^)]*\))?\s+)?(?:async\s+)?fn\s+([A-Za-z_]\w*)`),
		fp(graph.KindStruct, `^\s*(?:pub(?:\([^)]*\))?\s+)?struct\s+([A-Za-z_]\w*)`),
		fp(graph.KindInterface, `^\s*(?:pub(?:\([^)]*\))?\s+)?trait\s+([A-Za-z_]\w*)`),
		fp(graph.KindType, `^\s*(?:pub(?:\([^)]*\))?\s+)?enum\s+([A-Za-z_]\w*)`),
	},
	lang.Java: {
		fp(graph.KindClass, `^\s*(?:public|private|protected|abstract|final|static|\s)*class\s+([A-Za-z_]\w*)`),
		fp(graph.KindInterface, `^\s*(?:public|private|protected|\s)*interface\s+([A-Za-z_]\w*)`),
		fp(graph.KindType, `^\s*(?:public|private|protected|\s)*enum\s+([A-Za-z_]\w*)`),
	},
}

var tsFallback = []fallbackPattern{
	fp(graph.KindClass, `^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`),
	fp(graph.KindInterface, `^\s*(?:export\s+)?interface\s+([A-Za-z_$][\w$]*)`),
	fp(graph.KindType, `^\s*(?:export\s+)?(?:type|enum)\s+([A-Za-z_$][\w$]*)`),
	fp(graph.KindFunction, `^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`),
	fp(graph.KindConstant, `^\s*(?:export\s+)?const\s+([A-Za-z_$][\w$]*)`),
	fp(graph.KindVariable, `^\s*(?:export\s+)?(?:let|var)\s+([A-Za-z_$][\w$]*)`),
}

// FallbackParse scans content line by line against declaration patterns for
// the language. A grammar fault on one file must never leave it invisible to
// queries, so this path trades precision for coverage.
func FallbackParse(path string, content []byte, spec *lang.Spec) *graph.ParseResult {
	res := &graph.ParseResult{}
	res.Symbols = append(res.Symbols, graph.Symbol{
		Kind:      graph.KindModule,
		Name:      moduleName(path),
		FQName:    ModuleFQName(path),
		Path:      path,
		StartByte: 0,
		EndByte:   len(content),
		Language:  string(spec.Language),
	})

	patterns := fallbackPatterns[spec.Language]
	text := string(content)
	offset := 0
	for _, line := range strings.SplitAfter(text, "\n") {
		for _, p := range patterns {
			m := p.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			name := m[1]
			end := bodyEnd(text, offset, spec.Language)
			res.Symbols = append(res.Symbols, graph.Symbol{
				Kind:      p.kind,
				Name:      name,
				FQName:    name,
				Path:      path,
				StartByte: offset,
				EndByte:   end,
				Language:  string(spec.Language),
			})
			break
		}
		offset += len(line)
	}
	return res
}

// bodyEnd estimates where a declaration starting at offset ends. Brace
// languages balance braces from the first opening brace; Python scans to the
// next line at or below the declaration's indentation.
func bodyEnd(text string, offset int, l lang.Language) int {
	if l == lang.Python {
		return indentEnd(text, offset)
	}
	open := strings.IndexByte(text[offset:], '{')
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if open < 0 || (lineEnd >= 0 && open > lineEnd+1) {
		// Braceless declaration (const, type alias): ends at the line.
		if lineEnd < 0 {
			return len(text)
		}
		return offset + lineEnd
	}
	depth := 0
	for i := offset + open; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(text)
}

func indentEnd(text string, offset int) int {
	indent := 0
	for i := offset; i < len(text) && text[i] == ' '; i++ {
		indent++
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		return len(text)
	}
	pos := offset + lineEnd + 1
	last := pos
	for pos < len(text) {
		next := strings.IndexByte(text[pos:], '\n')
		end := len(text)
		if next >= 0 {
			end = pos + next
		}
		line := text[pos:end]
		trimmed := strings.TrimLeft(line, " \t")
		if trimmed != "" {
			cur := len(line) - len(trimmed)
			if cur <= indent {
				return last
			}
			last = end
		}
		if next < 0 {
			break
		}
		pos = end + 1
	}
	return len(text)
}
