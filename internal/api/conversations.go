package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/snail3d/ralphd/internal/chat"
	"github.com/snail3d/ralphd/internal/store"
)

// ConversationHandler handles saved-conversation endpoints.
type ConversationHandler struct {
	*Handler
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(base *Handler) *ConversationHandler {
	return &ConversationHandler{Handler: base}
}

// RegisterRoutes registers conversation routes.
func (h *ConversationHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/conversations/save", h.Save)
	r.Get("/api/conversations", h.List)
	r.Post("/api/conversations/load", h.Load)
	r.Delete("/api/conversations/{filename}", h.Delete)
}

type saveRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

// Save snapshots the live session into the store. A supplied name becomes
// the saved display name; otherwise one is derived from the project.
func (h *ConversationHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := readJSON(r, &req); err != nil || req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	ctrl, ok := h.registry.Get(req.SessionID)
	if !ok {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	rec := ctrl.Snapshot(req.Name)
	if err := h.repo.SaveConversation(r.Context(), rec); err != nil {
		slog.Error("failed to save conversation", "session_id", req.SessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to save conversation")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"filename":     rec.Meta.Filename,
		"display_name": rec.Meta.DisplayName,
	})
}

// List returns saved conversations, newest first.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	metas, err := h.repo.ListConversations(r.Context())
	if err != nil {
		slog.Error("failed to list conversations", "error", err)
		Error(w, http.StatusInternalServerError, "failed to list conversations")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"conversations": metas,
	})
}

type loadRequest struct {
	Filename  string `json:"filename"`
	SessionID string `json:"session_id"`
}

// Load restores a saved conversation into a session. An omitted session id
// gets a fresh one.
func (h *ConversationHandler) Load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := readJSON(r, &req); err != nil || req.Filename == "" {
		Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	rec, err := h.repo.LoadConversation(r.Context(), req.Filename)
	if errors.Is(err, store.ErrNotFound) {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		slog.Error("failed to load conversation", "filename", req.Filename, "error", err)
		Error(w, http.StatusInternalServerError, "failed to load conversation")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctrl := chat.Restore(sessionID, rec, h.deps)
	h.registry.Replace(sessionID, ctrl)

	JSON(w, http.StatusOK, map[string]interface{}{
		"success":       true,
		"session_id":    sessionID,
		"message_count": ctrl.MessageCount(),
		"project_name":  rec.Meta.ProjectName,
	})
}

// Delete removes a saved conversation.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" {
		Error(w, http.StatusBadRequest, "filename is required")
		return
	}

	deleted, err := h.repo.DeleteConversation(r.Context(), filename)
	if err != nil {
		slog.Error("failed to delete conversation", "filename", filename, "error", err)
		Error(w, http.StatusInternalServerError, "failed to delete conversation")
		return
	}
	if !deleted {
		Error(w, http.StatusNotFound, "conversation not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
