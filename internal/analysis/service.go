// Package analysis coordinates the tag scanner, position resolver and
// suggestion engine for the host surfaces (HTTP, MCP, LSP, CLI).
package analysis

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/starford/tagsense/internal/apperr"
	"github.com/starford/tagsense/internal/checksum"
	"github.com/starford/tagsense/internal/models"
	"github.com/starford/tagsense/internal/parser"
	"github.com/starford/tagsense/internal/schema"
	"github.com/starford/tagsense/internal/suggest"
)

// ScanResult is the tag index of one document snapshot.
type ScanResult struct {
	Checksum    string              `json:"checksum"`
	Occurrences []models.Occurrence `json:"occurrences"`
}

// Completion is the answer to a completion query.
type Completion struct {
	Checksum string                 `json:"checksum"`
	Trigger  string                 `json:"trigger"`
	Context  models.PositionContext `json:"context"`
	Items    []suggest.Item         `json:"items"`
}

// SchemaSummary describes one registered tag.
type SchemaSummary struct {
	Name string `json:"name"`
	schema.Record
}

// Service holds the active schema registry. Reloads swap the whole
// registry; queries always see one consistent registry.
type Service struct {
	registry atomic.Pointer[schema.Registry]
}

// NewService creates a new analysis service.
func NewService(reg *schema.Registry) *Service {
	s := &Service{}
	s.SetRegistry(reg)
	return s
}

// SetRegistry replaces the active registry. A nil registry is treated as empty.
func (s *Service) SetRegistry(reg *schema.Registry) {
	if reg == nil {
		reg = schema.NewRegistry(nil)
	}
	s.registry.Store(reg)
}

// Registry returns the active registry.
func (s *Service) Registry() *schema.Registry {
	return s.registry.Load()
}

// Scan indexes every tag occurrence in text.
func (s *Service) Scan(_ context.Context, text string) *ScanResult {
	occs := parser.Scan(text)
	if occs == nil {
		occs = []models.Occurrence{}
	}
	return &ScanResult{Checksum: checksum.String(text), Occurrences: occs}
}

// Resolve returns the tag and key enclosing the 1-based (line, col).
func (s *Service) Resolve(_ context.Context, text string, line, col int) (models.PositionContext, error) {
	if err := validatePosition(line, col); err != nil {
		return models.PositionContext{}, err
	}
	return parser.Resolve(text, line, col), nil
}

// Complete returns suggestions for the cursor at (line, col), using the
// character just before the cursor as the trigger.
func (s *Service) Complete(ctx context.Context, text string, line, col int) (*Completion, error) {
	pc, err := s.Resolve(ctx, text, line, col)
	if err != nil {
		return nil, err
	}
	trigger := parser.CharBefore(text, line, col)
	items := suggest.Suggest(trigger, pc, s.Registry())
	if items == nil {
		items = []suggest.Item{}
	}
	return &Completion{
		Checksum: checksum.String(text),
		Trigger:  trigger,
		Context:  pc,
		Items:    items,
	}, nil
}

// Hover returns the description of the tag enclosing (line, col), or
// apperr.ErrNotFound when there is none.
func (s *Service) Hover(ctx context.Context, text string, line, col int) (*suggest.HoverInfo, error) {
	pc, err := s.Resolve(ctx, text, line, col)
	if err != nil {
		return nil, err
	}
	h := suggest.Hover(pc, s.Registry())
	if h == nil {
		return nil, apperr.ErrNotFound
	}
	return h, nil
}

// Schemas lists the registered tags in declaration order.
func (s *Service) Schemas(_ context.Context) []SchemaSummary {
	reg := s.Registry()
	out := make([]SchemaSummary, 0, reg.Len())
	for _, name := range reg.Names() {
		rec, _ := reg.Lookup(name)
		out = append(out, SchemaSummary{Name: name, Record: rec})
	}
	return out
}

func validatePosition(line, col int) error {
	if line < 1 || col < 1 {
		return fmt.Errorf("%w: position %d:%d is not 1-based", apperr.ErrInvalidInput, line, col)
	}
	return nil
}
