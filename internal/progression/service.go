package progression

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ecoquest/quest-engine/internal/catalog"
	"github.com/ecoquest/quest-engine/internal/events"
	"github.com/ecoquest/quest-engine/internal/models"
	"github.com/ecoquest/quest-engine/internal/storage"
)

// ErrUnknownQuest is returned when progress is applied for a quest that
// is not in the catalog
var ErrUnknownQuest = errors.New("unknown quest")

// Ranker records XP totals for ranking. Implemented by the Redis
// leaderboard; optional so the engine degrades without it.
type Ranker interface {
	Record(ctx context.Context, userID string, xp int) error
}

// Outcome is the full effect of applying one accepted submission
type Outcome struct {
	Quest       *models.Quest           `json:"quest"`
	Progression *models.UserProgression `json:"progression"`
	Achievement *models.Achievement     `json:"achievement,omitempty"`
}

// Service applies verified results transactionally. Each submission is
// one non-interleaved transaction against the user's progression row,
// so two simultaneous submissions cannot lose an XP update.
type Service struct {
	repo     storage.Repository
	registry *catalog.Loader
	ranker   Ranker
	hub      *events.Hub
}

// NewService creates a progression service
func NewService(repo storage.Repository, registry *catalog.Loader, ranker Ranker, hub *events.Hub) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		ranker:   ranker,
		hub:      hub,
	}
}

// ApplyVerified advances the user's progress on a quest with an
// accepted verification result. Calling it with an invalid result is
// rejected with ErrInvalidResult.
func (s *Service) ApplyVerified(ctx context.Context, userID, questID string, result *models.VerificationResult) (*Outcome, error) {
	if result == nil || !result.IsValid {
		return nil, ErrInvalidResult
	}

	quest := s.registry.Get(questID)
	if quest == nil {
		return nil, ErrUnknownQuest
	}

	now := time.Now().UTC()

	state, user, achievement, err := s.repo.ApplyProgress(ctx, userID, questID,
		func(state models.QuestState, user models.UserProgression) (models.QuestState, models.UserProgression, *models.Achievement, error) {
			return Apply(quest, state, user, result, now)
		})
	if err != nil {
		return nil, fmt.Errorf("failed to apply progress: %w", err)
	}

	quest.Progress = state.Progress
	quest.Completed = state.Completed

	slog.Info("progress applied",
		"quest_id", questID,
		"user_id", userID,
		"progress", state.Progress,
		"total", quest.Total,
		"completed", state.Completed,
	)

	if s.hub != nil {
		s.hub.Publish(events.Event{
			Type:    events.TypeApplied,
			UserID:  userID,
			QuestID: questID,
			Message: fmt.Sprintf("progress %d/%d", state.Progress, quest.Total),
		})
	}

	if achievement != nil {
		slog.Info("achievement earned",
			"user_id", userID,
			"name", achievement.Name,
			"quest_id", questID,
			"xp", user.XP,
			"level", user.Level,
			"streak", user.Streak,
		)

		if s.hub != nil {
			s.hub.Publish(events.Event{
				Type:    events.TypeAchievement,
				UserID:  userID,
				QuestID: questID,
				Message: achievement.Name,
			})
		}

		if s.ranker != nil {
			if err := s.ranker.Record(ctx, userID, user.XP); err != nil {
				slog.Warn("failed to update leaderboard", "error", err, "user_id", userID)
			}
		}
	}

	return &Outcome{
		Quest:       quest,
		Progression: user,
		Achievement: achievement,
	}, nil
}

// Progress returns the user's quest states merged with catalog
// definitions, plus the progression record.
func (s *Service) Progress(ctx context.Context, userID string) ([]*models.Quest, *models.UserProgression, error) {
	states, err := s.repo.ListQuestStates(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list quest states: %w", err)
	}

	byQuest := make(map[string]*models.QuestState, len(states))
	for _, st := range states {
		byQuest[st.QuestID] = st
	}

	quests := s.registry.List()
	for _, q := range quests {
		if st, ok := byQuest[q.ID]; ok {
			q.Progress = st.Progress
			q.Completed = st.Completed
		}
		if n, err := s.repo.CountParticipants(ctx, q.ID); err == nil {
			q.Participants = n
		}
	}

	user, err := s.repo.GetProgression(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get progression: %w", err)
	}

	return quests, user, nil
}
