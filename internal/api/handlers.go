package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/tagsense/internal/analysis"
)

// Handler holds API route handlers.
type Handler struct {
	svc *analysis.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *analysis.Service) *Handler {
	return &Handler{svc: svc}
}

// Scan handles POST /api/scan.
//
//	@Summary		List every tag occurrence in a document
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScanRequest	true	"Document"
//	@Success		200		{object}	ScanResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/scan [post]
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Scan(r.Context(), req.Text))
}

// Check handles POST /api/check.
//
//	@Summary		Report unparsable bodies and schema mismatches
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ScanRequest	true	"Document"
//	@Success		200		{object}	CheckResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/check [post]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, CheckResponse{Problems: h.svc.Check(r.Context(), req.Text)})
}

// Resolve handles POST /api/resolve.
//
//	@Summary		Resolve the tag and key enclosing a cursor
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PositionRequest	true	"Document and cursor"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	pc, err := h.svc.Resolve(r.Context(), req.Text, req.Line, req.Column)
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeJSON(w, http.StatusOK, ResolveResponse{Context: pc})
}

// Complete handles POST /api/complete.
//
//	@Summary		Suggest completions for the character before the cursor
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PositionRequest	true	"Document and cursor"
//	@Success		200		{object}	CompletionResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/complete [post]
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	c, err := h.svc.Complete(r.Context(), req.Text, req.Line, req.Column)
	if err != nil {
		writeError(w, "complete", err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Hover handles POST /api/hover.
//
//	@Summary		Describe the tag enclosing the cursor
//	@Tags			analysis
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PositionRequest	true	"Document and cursor"
//	@Success		200		{object}	HoverResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/hover [post]
func (h *Handler) Hover(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	info, err := h.svc.Hover(r.Context(), req.Text, req.Line, req.Column)
	if err != nil {
		writeError(w, "hover", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ListSchemas handles GET /api/schemas.
//
//	@Summary		List the registered tag schemas
//	@Tags			schemas
//	@Produce		json
//	@Success		200	{object}	SchemaListResponse
//	@Security		BearerAuth
//	@Router			/schemas [get]
func (h *Handler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, SchemaListResponse{Schemas: h.svc.Schemas(r.Context())})
}

// GetSchema handles GET /api/schemas/{name}.
//
//	@Summary		Get one tag schema
//	@Tags			schemas
//	@Produce		json
//	@Param			name	path		string	true	"Tag name"
//	@Success		200		{object}	analysis.SchemaSummary
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/schemas/{name} [get]
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	rec, ok := h.svc.Registry().Lookup(name)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, analysis.SchemaSummary{Name: name, Record: rec})
}
