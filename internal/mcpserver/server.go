// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes tag analysis tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/apperr"
	"github.com/starford/tagsense/internal/storage"
)

const syntaxURI = "tagsense://tag-syntax"

// Server wraps the MCP server with tag analysis tools.
type Server struct {
	mcp   *server.MCPServer
	svc   *analysis.Service
	store storage.Provider
}

// New creates a new MCP server with all tools registered. store may be nil,
// in which case the workspace tools are not registered.
func New(svc *analysis.Service, store storage.Provider) *Server {
	s := &Server{svc: svc, store: store}

	s.mcp = server.NewMCPServer(
		"tagsense",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("scan_tags",
		mcp.WithDescription("List every custom tag occurrence in a YAML document, "+
			"with its position, body and parsed body."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full document text")),
	), s.scanTags)

	s.mcp.AddTool(mcp.NewTool("check_tags",
		mcp.WithDescription("Report tag bodies that do not parse, unknown tags, "+
			"missing required properties and unknown properties."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Full document text")),
	), s.checkTags)

	s.mcp.AddTool(mcp.NewTool("resolve_position",
		mcp.WithDescription("Return the tag and property key enclosing a cursor."),
		withPosition()...,
	), s.resolvePosition)

	s.mcp.AddTool(mcp.NewTool("complete",
		mcp.WithDescription("Suggest completions for the character before the cursor: "+
			"tag snippets after '!', property keys after ',' or '{', "+
			"boolean values after ':'."),
		withPosition()...,
	), s.complete)

	s.mcp.AddTool(mcp.NewTool("hover",
		mcp.WithDescription("Describe the tag enclosing a cursor."),
		withPosition()...,
	), s.hover)

	s.mcp.AddTool(mcp.NewTool("list_schemas",
		mcp.WithDescription("List the registered tags with their properties, types and required keys."),
	), s.listSchemas)

	s.mcp.AddTool(mcp.NewTool("get_tag_syntax",
		mcp.WithDescription("Returns the tag syntax contract. "+
			"Call this before writing tagged documents."),
	), s.getTagSyntax)

	if store != nil {
		s.mcp.AddTool(mcp.NewTool("list_documents",
			mcp.WithDescription("List YAML documents in the workspace or in one folder."),
			mcp.WithString("folder", mcp.Description("Optional folder to list (empty for all)")),
		), s.listDocuments)

		s.mcp.AddTool(mcp.NewTool("scan_document",
			mcp.WithDescription("Scan a workspace YAML document for tag occurrences."),
			mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the document (e.g. config/app.yaml)")),
		), s.scanDocument)
	}

	// Resource: tag syntax contract.
	s.mcp.AddResource(
		mcp.NewResource(syntaxURI, "Tag Syntax Contract",
			mcp.WithResourceDescription("Syntax of custom tags and their inline and block bodies."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readTagSyntaxResource,
	)

	return s
}

func withPosition() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("text", mcp.Required(), mcp.Description("Full document text")),
		mcp.WithNumber("line", mcp.Required(), mcp.Description("1-based line of the cursor")),
		mcp.WithNumber("column", mcp.Required(), mcp.Description("1-based character column of the cursor")),
	}
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type position struct {
	text      string
	line, col int
}

func requirePosition(req mcp.CallToolRequest) (position, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return position{}, err
	}
	line, err := req.RequireInt("line")
	if err != nil {
		return position{}, err
	}
	col, err := req.RequireInt("column")
	if err != nil {
		return position{}, err
	}
	return position{text: text, line: line, col: col}, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) scanTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(s.svc.Scan(ctx, text)), nil
}

func (s *Server) checkTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	problems := s.svc.Check(ctx, text)
	if len(problems) == 0 {
		return mcp.NewToolResultText("no problems found"), nil
	}
	return jsonResult(problems), nil
}

func (s *Server) resolvePosition(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := requirePosition(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	pc, err := s.svc.Resolve(ctx, p.text, p.line, p.col)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(pc), nil
}

func (s *Server) complete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := requirePosition(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	c, err := s.svc.Complete(ctx, p.text, p.line, p.col)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(c), nil
}

func (s *Server) hover(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := requirePosition(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h, err := s.svc.Hover(ctx, p.text, p.line, p.col)
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultText("no documented tag at this position"), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\n%s", h.Title, h.Description)), nil
}

func (s *Server) listSchemas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Schemas(ctx)), nil
}

func (s *Server) getTagSyntax(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TagSyntaxContract), nil
}

func (s *Server) listDocuments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := ""
	if f, err := req.RequireString("folder"); err == nil {
		folder = f
	}

	metas, err := s.store.List(folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var paths []string
	for _, m := range metas {
		paths = append(paths, m.Path)
	}
	return mcp.NewToolResultText(strings.Join(paths, "\n")), nil
}

func (s *Server) scanDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !storage.IsYAML(path) {
		return mcp.NewToolResultError(fmt.Sprintf("not a YAML document: %s", path)), nil
	}
	data, err := s.store.Read(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", path)), nil
	}
	return jsonResult(s.svc.Scan(ctx, string(data))), nil
}

func (s *Server) readTagSyntaxResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      syntaxURI,
			MIMEType: "text/markdown",
			Text:     TagSyntaxContract,
		},
	}, nil
}
