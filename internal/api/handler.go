// Package api provides HTTP handlers for the ralphd API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/snail3d/ralphd/internal/chat"
	"github.com/snail3d/ralphd/internal/store"
)

// Handler provides common handler utilities.
type Handler struct {
	repo     store.Repository
	registry *chat.Registry
	deps     chat.Deps
}

// NewHandler creates a new Handler with common dependencies. deps is used to
// rebuild controllers when a saved conversation is loaded into a session.
func NewHandler(repo store.Repository, registry *chat.Registry, deps chat.Deps) *Handler {
	return &Handler{repo: repo, registry: registry, deps: deps}
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
