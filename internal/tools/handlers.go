package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"codegraph/internal/graph"
	"codegraph/internal/store"
)

// symbolView is the wire shape of a symbol in tool output.
type symbolView struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	FQName    string `json:"fqname"`
	Path      string `json:"path"`
	StartByte int    `json:"start_byte"`
	EndByte   int    `json:"end_byte"`
	Language  string `json:"language"`
}

func viewOf(s graph.Symbol) symbolView {
	return symbolView{
		Kind:      string(s.Kind),
		Name:      s.Name,
		FQName:    s.FQName,
		Path:      s.Path,
		StartByte: s.StartByte,
		EndByte:   s.EndByte,
		Language:  s.Language,
	}
}

func (s *Server) handleListFiles(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.store.ListFiles(ctx)
	if err != nil {
		return errResult("list files err=" + err.Error()), nil
	}
	type fileView struct {
		Path        string `json:"path"`
		Language    string `json:"language"`
		Hash        string `json:"hash"`
		LastIndexed string `json:"last_indexed"`
	}
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{Path: f.Path, Language: f.Language, Hash: f.Hash, LastIndexed: f.LastIndexed})
	}
	return jsonResult(map[string]any{"count": len(out), "files": out}), nil
}

func (s *Server) handleFileSymbols(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	path := getStringArg(args, "path")
	if path == "" {
		return errResult("path is required"), nil
	}
	symbols, err := s.store.SymbolsForFile(ctx, path)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	if len(symbols) == 0 {
		return errResult(fmt.Sprintf("no symbols indexed for %q", path)), nil
	}
	out := make([]symbolView, 0, len(symbols))
	for _, sym := range symbols {
		out = append(out, viewOf(sym))
	}
	return jsonResult(map[string]any{"path": path, "count": len(out), "symbols": out}), nil
}

func (s *Server) handleFindSymbol(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	name := getStringArg(args, "name")
	if name == "" {
		return errResult("name is required"), nil
	}

	seen := map[int64]bool{}
	var out []symbolView
	collect := func(symbols []graph.Symbol) {
		for _, sym := range symbols {
			if !seen[sym.ID] {
				seen[sym.ID] = true
				out = append(out, viewOf(sym))
			}
		}
	}

	byName, err := s.store.SymbolsByName(ctx, name)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	collect(byName)
	byFQ, err := s.store.SymbolsByFQName(ctx, name)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	collect(byFQ)
	bySuffix, err := s.store.SymbolsByFQSuffix(ctx, name)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	collect(bySuffix)

	if len(out) == 0 {
		return errResult(fmt.Sprintf("no symbol matches %q", name)), nil
	}
	return jsonResult(map[string]any{"query": name, "count": len(out), "symbols": out}), nil
}

func (s *Server) handleSymbolEdges(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := parseArgs(req)
	if err != nil {
		return errResult(err.Error()), nil
	}
	fqname := getStringArg(args, "fqname")
	if fqname == "" {
		return errResult("fqname is required"), nil
	}
	direction := getStringArg(args, "direction")
	if direction == "" {
		direction = "both"
	}

	candidates, err := s.store.SymbolsByFQName(ctx, fqname)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	if len(candidates) == 0 {
		return errResult(fmt.Sprintf("no symbol with fqname %q", fqname)), nil
	}
	sym := candidates[0]

	type edgeView struct {
		Kind   string     `json:"kind"`
		Symbol symbolView `json:"symbol"`
	}
	views := func(neighbors []store.Neighbor) []edgeView {
		out := make([]edgeView, 0, len(neighbors))
		for _, n := range neighbors {
			out = append(out, edgeView{Kind: string(n.Edge.Kind), Symbol: viewOf(n.Symbol)})
		}
		return out
	}

	result := map[string]any{"symbol": viewOf(sym)}
	if direction == "outgoing" || direction == "both" {
		out, err := s.store.OutgoingEdges(ctx, sym.ID)
		if err != nil {
			return errResult("query err=" + err.Error()), nil
		}
		result["outgoing"] = views(out)
	}
	if direction == "incoming" || direction == "both" {
		in, err := s.store.IncomingEdges(ctx, sym.ID)
		if err != nil {
			return errResult("query err=" + err.Error()), nil
		}
		result["incoming"] = views(in)
	}
	return jsonResult(result), nil
}

func (s *Server) handleGraphStats(ctx context.Context, _ *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := s.store.ListFiles(ctx)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	symbols, err := s.store.CountSymbols(ctx)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	edges, err := s.store.CountEdges(ctx)
	if err != nil {
		return errResult("query err=" + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"files":   len(files),
		"symbols": symbols,
		"edges":   edges,
	}), nil
}
