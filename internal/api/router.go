package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(h *Handler, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/projects", h.ListProjects)
	r.Get("/statuses", h.ListStatuses)
	r.Get("/issues", h.ListIssues)
	r.Get("/search", h.Search)
	r.Get("/sent", h.ListSent)

	r.Post("/deliver", h.Deliver)
	r.Delete("/tracked", h.Untrack)
	r.Post("/feedback", h.Feedback)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
