package api

import (
	"log/slog"
	"net/http"
	"sort"

	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/progress"
)

// GetProgress returns the user's XP, level and completed challenges.
func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	awards, err := h.repo.GetAwards(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load awards", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load progress")
		return
	}

	xp := 0
	completed := make([]int, 0, len(awards))
	for _, a := range awards {
		xp += a.XP
		completed = append(completed, a.ChallengeID)
	}
	sort.Ints(completed)

	JSON(w, http.StatusOK, map[string]interface{}{
		"xp":          xp,
		"level":       progress.Level(xp),
		"level_index": progress.LevelIndex(xp),
		"completed":   completed,
		"total":       h.catalog.Total(),
	})
}
