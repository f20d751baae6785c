package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/snail3d/ralphd/internal/chat"
	"github.com/snail3d/ralphd/internal/domain"
)

// ChatHandler handles conversation endpoints.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers chat routes.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat", h.Chat)
	r.Post("/api/chat/reset", h.Reset)
	r.Get("/api/chat/sessions", h.Sessions)
}

type chatRequest struct {
	SessionID    string `json:"session_id"`
	Message      string `json:"message"`
	Action       string `json:"action"`
	SuggestionID string `json:"suggestion_id"`
	Vote         string `json:"vote"`
	Gender       string `json:"gender"`
}

type chatResponse struct {
	Success     bool                   `json:"success"`
	SessionID   string                 `json:"session_id"`
	IsNew       bool                   `json:"is_new"`
	Message     string                 `json:"message"`
	Suggestions []domain.Suggestion    `json:"suggestions"`
	PRDPreview  string                 `json:"prd_preview,omitempty"`
	Backroom    *chat.BackroomExchange `json:"backroom,omitempty"`
	HasPRD      bool                   `json:"has_prd"`
	TaskCount   int                    `json:"task_count"`
	PRDTitle    string                 `json:"prd_title,omitempty"`
}

// Chat processes one conversation turn. A missing session id starts a new
// session.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Message == "" && req.Action == "" && req.SuggestionID == "" && req.Gender == "" {
		Error(w, http.StatusBadRequest, "message is required")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ctrl := h.registry.GetOrCreate(sessionID)
	result := ctrl.ProcessMessage(r.Context(), chat.TurnInput{
		Message:      req.Message,
		Action:       req.Action,
		SuggestionID: req.SuggestionID,
		Vote:         req.Vote,
		GenderToggle: req.Gender,
	})

	status := ctrl.PRDStatus()
	JSON(w, http.StatusOK, chatResponse{
		Success:     true,
		SessionID:   sessionID,
		IsNew:       ctrl.MessageCount() <= 2,
		Message:     result.Response,
		Suggestions: result.Suggestions,
		PRDPreview:  result.PRDPreview,
		Backroom:    result.Backroom,
		HasPRD:      status.TaskCount > 0,
		TaskCount:   status.TaskCount,
		PRDTitle:    status.Title,
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

// Reset discards the session's conversation and starts over.
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := readJSON(r, &req); err != nil || req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	h.registry.Delete(req.SessionID)
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"session_id": req.SessionID,
	})
}

// Sessions lists active sessions, most recently active first.
func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"sessions": h.registry.List(),
	})
}

func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
