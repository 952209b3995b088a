package lsp

import (
	"context"
	"errors"
	"fmt"

	"go.lsp.dev/protocol"

	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/apperr"
	"github.com/starford/tagsense/internal/suggest"
)

// LSP positions are 0-based; the analysis service counts from 1.
func toCore(pos protocol.Position) (line, col int) {
	return int(pos.Line) + 1, int(pos.Character) + 1
}

func (s *Server) completion(ctx context.Context, p *protocol.CompletionParams) (*protocol.CompletionList, error) {
	list := &protocol.CompletionList{Items: []protocol.CompletionItem{}}
	doc := s.docs.get(string(p.TextDocument.URI))
	if doc == nil {
		return list, nil
	}

	line, col := toCore(p.Position)
	c, err := s.svc.Complete(ctx, doc.content, line, col)
	if err != nil {
		return nil, err
	}
	for _, it := range c.Items {
		list.Items = append(list.Items, protocol.CompletionItem{
			Label:            it.Label,
			Kind:             itemKind(it.Kind),
			InsertText:       it.InsertText,
			InsertTextFormat: protocol.InsertTextFormatPlainText,
		})
	}
	return list, nil
}

func itemKind(k suggest.Kind) protocol.CompletionItemKind {
	switch k {
	case suggest.KindSnippet:
		return protocol.CompletionItemKindSnippet
	case suggest.KindProperty:
		return protocol.CompletionItemKindProperty
	default:
		return protocol.CompletionItemKindValue
	}
}

func (s *Server) hover(ctx context.Context, p *protocol.HoverParams) (*protocol.Hover, error) {
	doc := s.docs.get(string(p.TextDocument.URI))
	if doc == nil {
		return nil, nil
	}

	line, col := toCore(p.Position)
	h, err := s.svc.Hover(ctx, doc.content, line, col)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: fmt.Sprintf("**!%s**\n\n%s", h.Title, h.Description),
		},
	}, nil
}

func (s *Server) publishDiagnostics(ctx context.Context, uri string) {
	doc := s.docs.get(uri)
	if doc == nil {
		return
	}
	s.notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentURI(uri),
		Diagnostics: diagnostics(s.svc.Check(ctx, doc.content)),
	})
}

func diagnostics(problems []analysis.Problem) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(problems))
	for _, p := range problems {
		sev := protocol.DiagnosticSeverityWarning
		if p.Severity == analysis.SeverityError {
			sev = protocol.DiagnosticSeverityError
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(p.Line - 1), Character: uint32(p.StartColumn - 1)},
				End:   protocol.Position{Line: uint32(p.Line - 1), Character: uint32(p.EndColumn - 1)},
			},
			Severity: sev,
			Source:   source,
			Message:  p.Message,
		})
	}
	return out
}
