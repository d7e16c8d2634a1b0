package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ecoquest/quest-engine/internal/verify"
)

// Quest catalog handlers

func (s *Server) handleListQuests(w http.ResponseWriter, r *http.Request) {
	quests := s.catalog.List()

	for _, q := range quests {
		if n, err := s.repo.CountParticipants(r.Context(), q.ID); err == nil {
			q.Participants = n
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quests": quests,
		"total":  len(quests),
	})
}

func (s *Server) handleGetQuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	quest := s.catalog.Get(id)
	if quest == nil {
		respondError(w, http.StatusNotFound, "quest_not_found", "quest not found", nil)
		return
	}

	if n, err := s.repo.CountParticipants(r.Context(), id); err == nil {
		quest.Participants = n
	}

	respondJSON(w, http.StatusOK, quest)
}

func (s *Server) handleGetTips(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	tips, err := s.engine.Tips(id)
	if err != nil {
		if errors.Is(err, verify.ErrQuestNotFound) {
			respondError(w, http.StatusNotFound, "quest_not_found", "quest not found", nil)
			return
		}
		slog.Error("failed to get tips", "error", err, "quest_id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get tips", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quest_id": id,
		"tips":     tips,
	})
}

func (s *Server) handleJoinQuest(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	userID := UserFromContext(r.Context())

	if s.catalog.Get(id) == nil {
		respondError(w, http.StatusNotFound, "quest_not_found", "quest not found", nil)
		return
	}

	if err := s.repo.JoinQuest(r.Context(), userID, id); err != nil {
		slog.Error("failed to join quest", "error", err, "quest_id", id, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to join quest", nil)
		return
	}

	participants, _ := s.repo.CountParticipants(r.Context(), id)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"quest_id":     id,
		"participants": participants,
	})
}
