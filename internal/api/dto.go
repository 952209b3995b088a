package api

import (
	"github.com/starford/tagsense/internal/analysis"
	"github.com/starford/tagsense/internal/models"
	"github.com/starford/tagsense/internal/suggest"
)

// ScanRequest is the request body for POST /api/scan.
type ScanRequest struct {
	Text string `json:"text" example:"key: !Foo{a: 1}" validate:"required"`
}

// PositionRequest is the request body for the cursor endpoints. Line and
// column are 1-based; column counts characters.
type PositionRequest struct {
	Text   string `json:"text" example:"key: !Foo{a: 1}" validate:"required"`
	Line   int    `json:"line" example:"1" validate:"required"`
	Column int    `json:"column" example:"11" validate:"required"`
}

// ScanResponse is the tag index of the posted document (aliased from the domain layer).
type ScanResponse = analysis.ScanResult

// CheckResponse lists the problems found in the posted document.
type CheckResponse struct {
	Problems []analysis.Problem `json:"problems" validate:"required"`
}

// ResolveResponse wraps the resolved cursor context.
type ResolveResponse struct {
	Context models.PositionContext `json:"context" validate:"required"`
}

// CompletionResponse is the completion answer (aliased from the domain layer).
type CompletionResponse = analysis.Completion

// HoverResponse is the hover answer (aliased from the domain layer).
type HoverResponse = suggest.HoverInfo

// SchemaListResponse wraps the registered tag schemas.
type SchemaListResponse struct {
	Schemas []analysis.SchemaSummary `json:"schemas" validate:"required"`
}
