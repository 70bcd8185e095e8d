// Package tools exposes the read-only MCP query surface over the symbol
// graph. Writes stay with the indexer; these handlers only query.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/store"
)

// Server wraps the MCP server with tool handlers.
type Server struct {
	mcp   *mcp.Server
	store *store.Store
}

// NewServer creates a new MCP server with all tools registered.
func NewServer(s *store.Store, version string) *Server {
	srv := &Server{
		store: s,
		mcp: mcp.NewServer(
			&mcp.Implementation{
				Name:    "codegraph",
				Version: version,
			},
			nil,
		),
	}
	srv.registerTools()
	return srv
}

// MCPServer returns the underlying MCP server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

func (s *Server) registerTools() {
	// 1. list_files
	s.mcp.AddTool(&mcp.Tool{
		Name:        "list_files",
		Description: "List every indexed file with its language, content hash, and last-indexed timestamp. Use to see what the graph currently covers.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleListFiles)

	// 2. file_symbols
	s.mcp.AddTool(&mcp.Tool{
		Name:        "file_symbols",
		Description: "Return all symbols extracted from one file, ordered by position: functions, methods, classes, types, variables, and the file's module node.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {
					"type": "string",
					"description": "Workspace-relative file path (e.g. 'src/widget.ts')"
				}
			},
			"required": ["path"]
		}`),
	}, s.handleFileSymbols)

	// 3. find_symbol
	s.mcp.AddTool(&mcp.Tool{
		Name:        "find_symbol",
		Description: "Find symbols by name or fully qualified name across the workspace. Exact name matches come first, then qualified-name suffix matches (e.g. 'Widget.render' matches 'ui.Widget.render'). Results are in stable (path, offset) order.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"name": {
					"type": "string",
					"description": "Simple or dotted name to look up (e.g. 'render' or 'Widget.render')"
				}
			},
			"required": ["name"]
		}`),
	}, s.handleFindSymbol)

	// 4. symbol_edges
	s.mcp.AddTool(&mcp.Tool{
		Name:        "symbol_edges",
		Description: "Return the relationships of one symbol: what it imports, calls, contains, inherits, or implements (outgoing), and what references it (incoming). Resolve the symbol by fully qualified name.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"fqname": {
					"type": "string",
					"description": "Fully qualified name of the symbol (e.g. 'ui.Widget.render')"
				},
				"direction": {
					"type": "string",
					"description": "Which edges to return: 'outgoing', 'incoming', or 'both' (default)",
					"enum": ["outgoing", "incoming", "both"]
				}
			},
			"required": ["fqname"]
		}`),
	}, s.handleSymbolEdges)

	// 5. graph_stats
	s.mcp.AddTool(&mcp.Tool{
		Name:        "graph_stats",
		Description: "Return totals for the indexed graph: file, symbol, and edge counts. Use to check index health before querying.",
		InputSchema: json.RawMessage(`{"type": "object"}`),
	}, s.handleGraphStats)
}

// jsonResult marshals data to JSON and returns as tool result.
func jsonResult(data any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errResult("json marshal err=" + err.Error())
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}
}

// errResult returns a tool result indicating an error.
func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}

// parseArgs unmarshals the raw JSON arguments into a map.
func parseArgs(req *mcp.CallToolRequest) (map[string]any, error) {
	if len(req.Params.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &m); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}
	return m, nil
}

// getStringArg extracts a string argument from parsed args.
func getStringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}
