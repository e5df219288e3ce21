package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/identity"
)

type chatRequest struct {
	Message string `json:"message"`
}

type chatMessageView struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func toChatViews(msgs []domain.ChatMessage) []chatMessageView {
	views := make([]chatMessageView, 0, len(msgs))
	for _, m := range msgs {
		views = append(views, chatMessageView{
			Role:      m.Role,
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return views
}

// Chat sends a question to the course assistant and returns its reply.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		Error(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	userID := identity.UserIDFromContext(r.Context())

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "message is empty")
		return
	}

	reply, err := h.agent.Answer(r.Context(), userID, req.Message)
	if err != nil {
		slog.Error("Chat answer failed", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "assistant failed to answer")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"reply": chatMessageView{
			Role:      reply.Role,
			Content:   reply.Content,
			CreatedAt: reply.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		},
	})
}

// ChatHistory returns the user's conversation log, oldest first.
func (h *Handler) ChatHistory(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		Error(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	userID := identity.UserIDFromContext(r.Context())

	msgs, err := h.agent.History(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load chat history", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"messages": toChatViews(msgs)})
}

// ChatReset clears the user's conversation log.
func (h *Handler) ChatReset(w http.ResponseWriter, r *http.Request) {
	if h.agent == nil {
		Error(w, http.StatusServiceUnavailable, "assistant not configured")
		return
	}
	userID := identity.UserIDFromContext(r.Context())

	if err := h.agent.Reset(r.Context(), userID); err != nil {
		slog.Error("Failed to reset chat", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to reset conversation")
		return
	}
	JSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
