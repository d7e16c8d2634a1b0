package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// User progression handlers

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	quests, user, err := s.progression.Progress(r.Context(), userID)
	if err != nil {
		slog.Error("failed to get progress", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get progress", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"progression": user,
		"quests":      quests,
	})
}

func (s *Server) handleGetAchievements(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	achievements, err := s.repo.ListAchievements(r.Context(), userID)
	if err != nil {
		slog.Error("failed to list achievements", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list achievements", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"achievements": achievements,
		"total":        len(achievements),
	})
}

func (s *Server) handleGetSubmissions(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	limit := 50 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	submissions, err := s.repo.ListSubmissions(r.Context(), userID, limit)
	if err != nil {
		slog.Error("failed to list submissions", "error", err, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list submissions", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"submissions": submissions,
		"total":       len(submissions),
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if s.leaderboard == nil {
		respondError(w, http.StatusServiceUnavailable, "unavailable", "leaderboard is not configured", nil)
		return
	}

	limit := 10 // default
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	entries, err := s.leaderboard.Top(r.Context(), limit)
	if err != nil {
		slog.Error("failed to read leaderboard", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to read leaderboard", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}
