package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ecoquest/quest-engine/internal/models"
	"github.com/ecoquest/quest-engine/internal/progression"
	"github.com/ecoquest/quest-engine/internal/verify"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string, suggestions []string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:        code,
			Message:     message,
			Suggestions: suggestions,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "not_ready", "database not reachable", nil)
		return
	}

	if s.leaderboard != nil {
		if err := s.leaderboard.HealthCheck(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "redis not reachable", nil)
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Evidence submission

// submitRequest is the evidence artifact descriptor sent by the caller.
// Only declared metadata crosses this boundary; the photo bytes live
// wherever the caller stored them.
type submitRequest struct {
	Artifact models.Artifact `json:"artifact"`
}

// submitResponse bundles the verdict with the progression effects of an
// accepted submission
type submitResponse struct {
	Result      *models.VerificationResult `json:"result"`
	Quest       *models.Quest              `json:"quest,omitempty"`
	Progression *models.UserProgression    `json:"progression,omitempty"`
	Achievement *models.Achievement        `json:"achievement,omitempty"`
}

func (s *Server) handleSubmitEvidence(w http.ResponseWriter, r *http.Request) {
	questID := chi.URLParam(r, "id")
	userID := UserFromContext(r.Context())

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", nil)
		return
	}

	result, err := s.engine.SubmitEvidence(r.Context(), userID, questID, req.Artifact)
	if err != nil {
		switch {
		case errors.Is(err, verify.ErrQuestNotFound):
			respondError(w, http.StatusNotFound, "quest_not_found", "quest not recognized", nil)
		case errors.Is(err, verify.ErrInvalidArtifact):
			respondError(w, http.StatusBadRequest, "invalid_artifact", err.Error(), verify.SuggestionsForCategory(""))
		case errors.Is(err, context.Canceled):
			// client went away mid-classification; nothing was written
		default:
			slog.Error("failed to verify evidence", "error", err, "quest_id", questID, "user_id", userID)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to verify evidence", nil)
		}
		return
	}

	if !result.IsValid {
		respondJSON(w, http.StatusOK, submitResponse{Result: result})
		return
	}

	outcome, err := s.progression.ApplyVerified(r.Context(), userID, questID, result)
	if err != nil {
		if errors.Is(err, progression.ErrUnknownQuest) {
			respondError(w, http.StatusNotFound, "quest_not_found", "quest not recognized", nil)
			return
		}
		slog.Error("failed to apply progress", "error", err, "quest_id", questID, "user_id", userID)
		respondError(w, http.StatusInternalServerError, "internal_error", "verification succeeded but progress could not be saved", nil)
		return
	}

	respondJSON(w, http.StatusOK, submitResponse{
		Result:      result,
		Quest:       outcome.Quest,
		Progression: outcome.Progression,
		Achievement: outcome.Achievement,
	})
}
