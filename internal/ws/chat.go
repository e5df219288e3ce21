// Package ws provides the WebSocket chat endpoint for the course assistant.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/avaldez/sqlquest/internal/agent"
	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/store"
)

// answerTimeout bounds one assistant answer, retrieval included.
const answerTimeout = 90 * time.Second

// ChatHandler streams assistant conversations over a WebSocket.
type ChatHandler struct {
	repo          store.Repository
	agent         *agent.Service
	allowedOrigin string
	isDev         bool
}

func NewChatHandler(repo store.Repository, agentSvc *agent.Service, allowedOrigin string, isDev bool) *ChatHandler {
	return &ChatHandler{
		repo:          repo,
		agent:         agentSvc,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// wsMessage is the frame format in both directions. Client sends
// {type:"ask", content:...} or {type:"ping"}; server replies with
// {type:"answer"|"error"|"pong", content:...}.
type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	slog.Info("Chat WebSocket connection request", "user_id", userID, "ip", r.RemoteAddr)

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	if h.agent == nil {
		if err := h.writeJSON(ws, wsMessage{Type: "error", Content: "assistant not configured"}); err != nil {
			slog.Debug("Failed to send error frame", "error", err)
		}
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.readLoop(ctx, ws, userID)
	slog.Info("Chat session ended", "user_id", userID)
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *ChatHandler) readLoop(ctx context.Context, ws *websocket.Conn, userID string) {
	for {
		_, message, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			if err := h.writeJSON(ws, wsMessage{Type: "error", Content: "invalid frame"}); err != nil {
				return
			}
			continue
		}

		switch msg.Type {
		case "ask":
			if strings.TrimSpace(msg.Content) == "" {
				if err := h.writeJSON(ws, wsMessage{Type: "error", Content: "message is empty"}); err != nil {
					return
				}
				continue
			}

			answerCtx, cancel := context.WithTimeout(ctx, answerTimeout)
			reply, err := h.agent.Answer(answerCtx, userID, msg.Content)
			cancel()
			if err != nil {
				slog.Error("Chat answer failed", "error", err, "user_id", userID)
				if err := h.writeJSON(ws, wsMessage{Type: "error", Content: "assistant failed to answer"}); err != nil {
					return
				}
				continue
			}
			if err := h.writeJSON(ws, wsMessage{Type: "answer", Content: reply.Content}); err != nil {
				return
			}
		case "ping":
			if err := h.writeJSON(ws, wsMessage{Type: "pong"}); err != nil {
				slog.Debug("Failed to send pong", "error", err)
			}
		}

		// Update last seen asynchronously with timeout.
		go func() {
			updateCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := h.repo.UpdateLastSeen(updateCtx, userID, time.Now()); err != nil {
				slog.Warn("Failed to update last seen", "error", err)
			}
		}()
	}
}

func (h *ChatHandler) writeJSON(ws *websocket.Conn, v wsMessage) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return ws.Write(context.Background(), websocket.MessageText, data)
}
