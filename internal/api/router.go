package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/tagsense/internal/analysis"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *analysis.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Document analysis.
	r.Post("/scan", h.Scan)
	r.Post("/check", h.Check)
	r.Post("/resolve", h.Resolve)
	r.Post("/complete", h.Complete)
	r.Post("/hover", h.Hover)

	// Schemas.
	r.Get("/schemas", h.ListSchemas)
	r.Get("/schemas/{name}", h.GetSchema)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
