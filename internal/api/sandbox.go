package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/avaldez/sqlquest/internal/course"
	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/runner"
	"github.com/avaldez/sqlquest/internal/table"
)

// queryTimeout bounds a single learner query against the course database.
const queryTimeout = 10 * time.Second

type queryRequest struct {
	Query string `json:"query"`
}

// tablePayload is the wire form of a query result.
type tablePayload struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func toPayload(r *table.Result) *tablePayload {
	if r == nil {
		return nil
	}
	return &tablePayload{Columns: r.Columns, Rows: r.Rows}
}

// GetMe returns the current user's information.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.repo.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		Error(w, http.StatusUnauthorized, "user not found")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  user.UserID,
		"username": user.Username,
	})
}

// GetConfig returns the server configuration for the frontend.
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"ai_enabled": h.agent != nil && h.agent.Enabled(),
	})
}

// GetSchema returns the course database tables and their columns.
func (h *Handler) GetSchema(w http.ResponseWriter, r *http.Request) {
	tables, err := course.Tables(r.Context(), h.courseDB)
	if err != nil {
		slog.Error("Failed to inspect course schema", "error", err)
		Error(w, http.StatusInternalServerError, "failed to read schema")
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// RunQuery executes a learner query against the course database and returns
// the resulting table. SQL errors come back as a 200 with the error text so
// the sandbox can display them inline.
func (h *Handler) RunQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		Error(w, http.StatusBadRequest, "query is empty")
		return
	}

	ctx, cancel := withQueryTimeout(r)
	defer cancel()

	result, err := runner.Run(ctx, h.courseDB, req.Query)
	if err != nil {
		JSON(w, http.StatusOK, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
		})
		return
	}

	slog.Info("Sandbox query executed",
		"user_id", identity.UserIDFromContext(r.Context()),
		"result", runner.Describe(result))

	JSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"result": toPayload(result),
	})
}
