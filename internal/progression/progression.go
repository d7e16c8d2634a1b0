// Package progression turns an accepted verification verdict into
// updated quest progress, XP, level, streak and achievement records.
package progression

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ecoquest/quest-engine/internal/models"
)

// ErrInvalidResult is returned when the state machine is invoked with a
// result that is not valid. That is a programming defect in the caller,
// not a domain failure.
var ErrInvalidResult = errors.New("progression applied to an invalid verification result")

// Apply computes the next quest/progression state for one accepted
// submission. Progress advances by one, clamped to the quest total;
// completion is one-way. XP, level, streak and the achievement are
// credited only on the transition into completed, never again on an
// already-completed quest.
func Apply(
	quest *models.Quest,
	state models.QuestState,
	user models.UserProgression,
	result *models.VerificationResult,
	now time.Time,
) (models.QuestState, models.UserProgression, *models.Achievement, error) {
	if result == nil || !result.IsValid {
		return state, user, nil, ErrInvalidResult
	}

	newProgress := state.Progress + 1
	if newProgress > quest.Total {
		newProgress = quest.Total
	}

	justCompleted := newProgress == quest.Total && !state.Completed

	state.Progress = newProgress
	state.Completed = state.Completed || justCompleted
	state.UpdatedAt = now

	if !justCompleted {
		return state, user, nil, nil
	}

	user.XP += quest.XPReward
	user.Level = models.LevelForXP(user.XP)
	user.Streak++
	user.UpdatedAt = now

	achievement := newAchievement(quest, user.UserID, now)
	return state, user, achievement, nil
}

// newAchievement builds the completion achievement for a quest
func newAchievement(quest *models.Quest, userID string, now time.Time) *models.Achievement {
	name, icon := AchievementForCategory(quest.Category)
	return &models.Achievement{
		ID:          uuid.New().String(),
		UserID:      userID,
		Name:        name,
		Icon:        icon,
		Description: fmt.Sprintf("Completed %s", quest.Title),
		EarnedAt:    now,
	}
}

// categoryIcons maps quest categories to achievement icons
var categoryIcons = map[string]string{
	"Waste":     "♻️",
	"Energy":    "⚡",
	"Water":     "💧",
	"Community": "🤝",
}

// AchievementForCategory names the achievement earned by completing a
// quest of the given category.
func AchievementForCategory(category string) (name, icon string) {
	icon, ok := categoryIcons[category]
	if !ok {
		icon = "🌱"
	}
	return fmt.Sprintf("%s Champion", category), icon
}
