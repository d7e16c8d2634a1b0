package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ecoquest/quest-engine/internal/models"
)

// ErrNotFound is returned when a requested record does not exist
var ErrNotFound = errors.New("record not found")

// TransitionFunc computes the next quest/progression state from the
// current one. It runs inside a transaction while both rows are locked,
// so concurrent submissions for the same user serialize instead of
// losing updates. A returned achievement is persisted in the same
// transaction.
type TransitionFunc func(state models.QuestState, user models.UserProgression) (models.QuestState, models.UserProgression, *models.Achievement, error)

// Repository defines the interface for progression persistence
type Repository interface {
	// Quest state
	GetQuestState(ctx context.Context, userID, questID string) (*models.QuestState, error)
	ListQuestStates(ctx context.Context, userID string) ([]*models.QuestState, error)
	JoinQuest(ctx context.Context, userID, questID string) error
	CountParticipants(ctx context.Context, questID string) (int, error)

	// Progression
	GetProgression(ctx context.Context, userID string) (*models.UserProgression, error)
	ApplyProgress(ctx context.Context, userID, questID string, fn TransitionFunc) (*models.QuestState, *models.UserProgression, *models.Achievement, error)

	// Achievements (most-recent-first)
	ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error)

	// Submissions audit
	CreateSubmission(ctx context.Context, sub *models.Submission) error
	ListSubmissions(ctx context.Context, userID string, limit int) ([]*models.Submission, error)
	DeleteSubmissionsBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Health
	Ping(ctx context.Context) error
	Close() error
}
