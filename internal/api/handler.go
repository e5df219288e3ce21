// Package api provides HTTP handlers for the SQLQuest API.
package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/avaldez/sqlquest/internal/agent"
	"github.com/avaldez/sqlquest/internal/catalog"
	"github.com/avaldez/sqlquest/internal/store"
)

// Handler provides common handler dependencies.
type Handler struct {
	repo     store.Repository
	courseDB *sql.DB
	catalog  *catalog.Catalog
	agent    *agent.Service
}

// NewHandler creates a new Handler with common dependencies. agentSvc may
// be nil when the assistant is not configured.
func NewHandler(repo store.Repository, courseDB *sql.DB, cat *catalog.Catalog, agentSvc *agent.Service) *Handler {
	return &Handler{
		repo:     repo,
		courseDB: courseDB,
		catalog:  cat,
		agent:    agentSvc,
	}
}

// RegisterRoutes registers all API routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Get("/schema", h.GetSchema)
		r.Post("/query", h.RunQuery)
		r.Get("/lessons", h.ListLessons)
		r.Get("/challenges", h.ListChallenges)
		r.Get("/challenges/{id}/hint", h.GetHint)
		r.Post("/challenges/{id}/validate", h.ValidateChallenge)
		r.Get("/progress", h.GetProgress)
		r.Post("/chat", h.Chat)
		r.Get("/chat/history", h.ChatHistory)
		r.Post("/chat/reset", h.ChatReset)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a request body, rejecting unknown fields.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func withQueryTimeout(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), queryTimeout)
}
