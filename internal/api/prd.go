package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PRDHandler serves the current document for a session.
type PRDHandler struct {
	*Handler
}

// NewPRDHandler creates a new PRD handler.
func NewPRDHandler(base *Handler) *PRDHandler {
	return &PRDHandler{Handler: base}
}

// RegisterRoutes registers PRD routes.
func (h *PRDHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/prd/{sessionID}", h.Get)
}

// Get renders the session's document. The compressed view is the default;
// ?format=readable selects the pretty view.
func (h *PRDHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	ctrl, ok := h.registry.Get(sessionID)
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	compressed := r.URL.Query().Get("format") != "readable"
	rendered, status := ctrl.RenderPRD(compressed)

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": sessionID,
		"prd":        rendered,
		"task_count": status.TaskCount,
		"title":      status.Title,
	})
}
