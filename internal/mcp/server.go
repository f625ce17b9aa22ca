package mcp

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jcdickinson/oxidoc/internal/db"
	"github.com/jcdickinson/oxidoc/internal/docs"
	"github.com/jcdickinson/oxidoc/internal/document"
	"github.com/jcdickinson/oxidoc/internal/markdown"
	"github.com/jcdickinson/oxidoc/internal/markup"
	"github.com/jcdickinson/oxidoc/internal/store"
)

//go:embed instructions.md
var instructions string

const defaultSearchLimit = 20

type Server struct {
	mcpServer *server.MCPServer
	store     *store.Store
	index     *db.DB
	crate     document.CrateInfo
}

// NewServer exposes one crate's store over MCP. index may be nil, in which
// case search_docs is not offered and list_functions only sees records held
// in memory.
func NewServer(st *store.Store, index *db.DB, crate document.CrateInfo) *Server {
	s := &Server{store: st, index: index, crate: crate}

	mcpServer := server.NewMCPServer(
		"oxidoc",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("list_modules",
			mcp.WithDescription("List every module path of the crate, sorted."),
		),
		s.handleListModules,
	)

	mcpServer.AddTool(
		mcp.NewTool("list_functions",
			mcp.WithDescription("List the free functions declared directly in a module."),
			mcp.WithString("scope",
				mcp.Description("Module path, e.g. \"mycrate::io\""),
				mcp.Required(),
			),
		),
		s.handleListFunctions,
	)

	mcpServer.AddTool(
		mcp.NewTool("get_doc",
			mcp.WithDescription("Get the rendered documentation of one item as markdown."),
			mcp.WithString("path",
				mcp.Description("Full item path, e.g. \"mycrate::io::Read\""),
				mcp.Required(),
			),
		),
		s.handleGetDoc,
	)

	if s.index == nil {
		return
	}
	mcpServer.AddTool(
		mcp.NewTool("search_docs",
			mcp.WithDescription("Search the crate's items by name, path or summary. Returns odoc:// URIs that can be read as resources."),
			mcp.WithString("query",
				mcp.Description("Text to look for"),
				mcp.Required(),
			),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of results (default 20)"),
			),
		),
		s.handleSearchDocs,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			docs.URIScheme+"{path}",
			"Rust documentation item",
			mcp.WithTemplateDescription("Read a documentation item by its full path. Search results and doc links use these URIs."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleListModules(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	paths := s.store.Modpaths()
	lines := make([]string, len(paths))
	for i, p := range paths {
		lines[i] = p.String()
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) handleListFunctions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	scope, _ := args["scope"].(string)
	if scope == "" {
		return mcp.NewToolResultError("missing required parameter: scope"), nil
	}

	path := document.ParseModPath(scope)
	names, ok := s.store.GetFunctions(path)
	if !ok && s.index != nil {
		var err error
		names, err = s.indexedFunctions(scope)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("listing functions: %v", err)), nil
		}
		ok = len(names) > 0 || s.store.HasModpath(path)
	}
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown module %s", scope)), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("no functions in %s", scope)), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

// indexedFunctions answers list_functions from the search index when the
// store was loaded from disk and its in-memory scope index is empty.
func (s *Server) indexedFunctions(scope string) ([]string, error) {
	crate, err := s.index.GetCrate(s.crate.Package.Name, s.crate.Package.Version)
	if err != nil || crate == nil {
		return nil, err
	}
	items, err := s.index.ChildItems(crate.ID, scope, string(document.KindFunction))
	if err != nil {
		return nil, err
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	return names, nil
}

func (s *Server) handleGetDoc(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	doc, err := s.store.LoadDoc(document.ParseModPath(path))
	if err != nil {
		if errors.Is(err, store.ErrDocNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no documentation for %s", path)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("loading %s: %v", path, err)), nil
	}
	return mcp.NewToolResultText(markup.Format(&doc, s.crate).PlainMarkdown()), nil
}

func (s *Server) handleSearchDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	query, _ := args["query"].(string)
	if query == "" {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := defaultSearchLimit
	if l, ok := args["limit"].(float64); ok && l > 0 {
		limit = int(l)
	}

	results, err := s.index.SearchItems(query, []string{s.crate.Package.Name}, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no matches"), nil
	}

	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "%s%s (%s)", docs.URIScheme, r.Path, r.Kind)
		if r.Summary != "" {
			b.WriteString(": " + r.Summary)
		}
		b.WriteByte('\n')
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	path := strings.TrimPrefix(uri, docs.URIScheme)
	if path == uri || path == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}
	if idx := strings.LastIndex(path, "#"); idx >= 0 {
		path = path[:idx]
	}

	doc, err := s.store.LoadDoc(document.ParseModPath(path))
	if err != nil {
		return nil, fmt.Errorf("getting doc: %w", err)
	}

	meta := map[string]string{
		"crate": s.crate.String(),
		"kind":  string(doc.Kind()),
		"path":  doc.ModPath.String(),
	}
	if doc.Visibility != nil {
		meta["visibility"] = doc.Visibility.String()
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     markdown.AddFrontMatter(markup.Format(&doc, s.crate).PlainMarkdown(), meta),
		},
	}, nil
}

func (s *Server) Run() error {
	slog.Info("serving MCP over stdio", "crate", s.crate.String(), "modules", len(s.store.Modpaths()))
	return server.ServeStdio(s.mcpServer)
}
