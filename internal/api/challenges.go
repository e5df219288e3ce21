package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/avaldez/sqlquest/internal/domain"
	"github.com/avaldez/sqlquest/internal/identity"
	"github.com/avaldez/sqlquest/internal/progress"
	"github.com/avaldez/sqlquest/internal/validate"
)

// ListLessons returns the course lessons.
func (h *Handler) ListLessons(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"lessons": h.catalog.Lessons})
}

// ListChallenges returns the challenge list with the user's completion
// state. Reference queries never leave the server.
func (h *Handler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	awards, err := h.repo.GetAwards(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to load awards", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	completed := make(map[int]bool, len(awards))
	for _, a := range awards {
		completed[a.ChallengeID] = true
	}

	type challengeView struct {
		ID          int    `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	views := make([]challengeView, 0, len(h.catalog.Challenges))
	for _, c := range h.catalog.Challenges {
		views = append(views, challengeView{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Completed:   completed[c.ID],
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"challenges": views})
}

// GetHint returns the hint for a challenge.
func (h *Handler) GetHint(w http.ResponseWriter, r *http.Request) {
	c, ok := h.challengeFromURL(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"id":   c.ID,
		"hint": c.Hint,
	})
}

type validateRequest struct {
	Query string `json:"query"`
}

// ValidateChallenge runs the learner's query and the reference query and
// compares results ignoring row and column order. A correct answer awards
// XP once per challenge.
func (h *Handler) ValidateChallenge(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())

	c, ok := h.challengeFromURL(w, r)
	if !ok {
		return
	}

	var req validateRequest
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

	outcome := validate.Check(ctx, h.courseDB, c.ReferenceSQL, req.Query)
	if outcome.ReferenceErr != "" {
		// The reference query is part of the catalog; failing to run it is a
		// server-side problem, not the learner's mistake.
		slog.Error("Reference query failed", "challenge_id", c.ID, "error", outcome.ReferenceErr)
		Error(w, http.StatusInternalServerError, outcome.ReferenceErr)
		return
	}

	resp := map[string]interface{}{
		"ok":           outcome.OK,
		"learner":      toPayload(outcome.Learner),
		"expected":     toPayload(outcome.Reference),
		"xp_awarded":   0,
		"completed":    false,
		"already_done": false,
	}
	if outcome.LearnerErr != "" {
		resp["error"] = outcome.LearnerErr
	}

	if outcome.OK {
		awarded, err := h.repo.AwardChallenge(r.Context(), userID, c.ID, progress.DefaultAward)
		if err != nil {
			slog.Error("Failed to record award", "error", err, "user_id", userID, "challenge_id", c.ID)
			Error(w, http.StatusInternalServerError, "failed to record progress")
			return
		}
		resp["completed"] = true
		resp["already_done"] = !awarded
		if awarded {
			resp["xp_awarded"] = progress.DefaultAward
			slog.Info("Challenge completed", "user_id", userID, "challenge_id", c.ID)
		}
	}

	xp, level, err := h.userProgress(r, userID)
	if err != nil {
		slog.Error("Failed to load progress", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to load progress")
		return
	}
	resp["xp_total"] = xp
	resp["level"] = level

	JSON(w, http.StatusOK, resp)
}

func (h *Handler) challengeFromURL(w http.ResponseWriter, r *http.Request) (*domain.Challenge, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		Error(w, http.StatusBadRequest, "invalid challenge id")
		return nil, false
	}
	c := h.catalog.Challenge(id)
	if c == nil {
		Error(w, http.StatusNotFound, "challenge not found")
		return nil, false
	}
	return c, true
}

func (h *Handler) userProgress(r *http.Request, userID string) (int, string, error) {
	awards, err := h.repo.GetAwards(r.Context(), userID)
	if err != nil {
		return 0, "", err
	}
	xp := 0
	for _, a := range awards {
		xp += a.XP
	}
	return xp, progress.Level(xp), nil
}
