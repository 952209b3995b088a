// Package lsp serves tag completion, hover and diagnostics to editors over
// the Language Server Protocol.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/starford/tagsense/internal/analysis"
)

const (
	serverName = "tagsense"
	source     = "tagsense"
)

// TriggerCharacters are the characters that make editors ask for completions.
var TriggerCharacters = []string{"!", ",", "{", ":"}

// client is the part of jsonrpc2.Conn the server talks back through.
type client interface {
	Notify(ctx context.Context, method string, params interface{}) error
	Close() error
}

// Server answers LSP requests for open YAML documents.
type Server struct {
	svc     *analysis.Service
	docs    *documentStore
	logger  *slog.Logger
	version string

	client   client
	shutdown atomic.Bool
	exited   atomic.Bool
}

// New creates a language server backed by svc.
func New(svc *analysis.Service, logger *slog.Logger, version string) *Server {
	return &Server{
		svc:     svc,
		docs:    newDocumentStore(),
		logger:  logger,
		version: version,
	}
}

// Serve runs the server over rwc until the client exits, the stream closes
// or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.client = conn
	conn.Go(ctx, s.Handle)

	select {
	case <-ctx.Done():
		_ = conn.Close()
		<-conn.Done()
		return ctx.Err()
	case <-conn.Done():
	}

	err := conn.Err()
	if s.exited.Load() || err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return fmt.Errorf("lsp: connection: %w", err)
}

// Handle dispatches one JSON-RPC message. It is a jsonrpc2.Handler.
func (s *Server) Handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Debug("lsp request", slog.String("method", req.Method()))

	if s.shutdown.Load() && req.Method() != protocol.MethodExit {
		return reply(ctx, nil, fmt.Errorf("%w: server is shutting down", jsonrpc2.ErrInvalidRequest))
	}

	switch req.Method() {
	case protocol.MethodInitialize:
		return reply(ctx, s.initialize(), nil)

	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)

	case protocol.MethodShutdown:
		s.shutdown.Store(true)
		return reply(ctx, nil, nil)

	case protocol.MethodExit:
		s.exited.Store(true)
		err := reply(ctx, nil, nil)
		if s.client != nil {
			_ = s.client.Close()
		}
		return err

	case protocol.MethodTextDocumentDidOpen:
		var p protocol.DidOpenTextDocumentParams
		if err := unmarshal(req, &p); err != nil {
			return reply(ctx, nil, err)
		}
		uri := string(p.TextDocument.URI)
		s.docs.put(uri, p.TextDocument.Text, p.TextDocument.Version)
		s.publishDiagnostics(ctx, uri)
		return reply(ctx, nil, nil)

	case protocol.MethodTextDocumentDidChange:
		var p didChangeParams
		if err := unmarshal(req, &p); err != nil {
			return reply(ctx, nil, err)
		}
		uri := string(p.TextDocument.URI)
		doc := s.docs.get(uri)
		if doc == nil {
			return reply(ctx, nil, nil)
		}
		content := doc.content
		for _, ch := range p.ContentChanges {
			content = applyChange(content, ch)
		}
		s.docs.put(uri, content, p.TextDocument.Version)
		s.publishDiagnostics(ctx, uri)
		return reply(ctx, nil, nil)

	case protocol.MethodTextDocumentDidClose:
		var p protocol.DidCloseTextDocumentParams
		if err := unmarshal(req, &p); err != nil {
			return reply(ctx, nil, err)
		}
		uri := string(p.TextDocument.URI)
		s.docs.remove(uri)
		s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
			URI:         p.TextDocument.URI,
			Diagnostics: []protocol.Diagnostic{},
		})
		return reply(ctx, nil, nil)

	case protocol.MethodTextDocumentCompletion:
		var p protocol.CompletionParams
		if err := unmarshal(req, &p); err != nil {
			return reply(ctx, nil, err)
		}
		list, err := s.completion(ctx, &p)
		return reply(ctx, list, err)

	case protocol.MethodTextDocumentHover:
		var p protocol.HoverParams
		if err := unmarshal(req, &p); err != nil {
			return reply(ctx, nil, err)
		}
		h, err := s.hover(ctx, &p)
		return reply(ctx, h, err)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (s *Server) initialize() *protocol.InitializeResult {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				Change:    protocol.TextDocumentSyncKindIncremental,
				OpenClose: true,
			},
			HoverProvider: true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: TriggerCharacters,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    serverName,
			Version: s.version,
		},
	}
}

func (s *Server) notify(ctx context.Context, method string, params interface{}) {
	if s.client == nil {
		return
	}
	if err := s.client.Notify(ctx, method, params); err != nil {
		s.logger.Warn("lsp notify failed",
			slog.String("method", method),
			slog.String("error", err.Error()),
		)
	}
}

type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error { return nil }

// Stdio joins a reader and a writer into the stream Serve expects.
func Stdio(r io.Reader, w io.Writer) io.ReadWriteCloser {
	return stdio{Reader: r, Writer: w}
}

func unmarshal(req jsonrpc2.Request, v any) error {
	if err := json.Unmarshal(req.Params(), v); err != nil {
		return fmt.Errorf("%w: %s", jsonrpc2.ErrInvalidParams, err)
	}
	return nil
}
