package progression

import (
	"errors"
	"testing"
	"time"

	"github.com/ecoquest/quest-engine/internal/models"
)

func validResult() *models.VerificationResult {
	return &models.VerificationResult{IsValid: true, Confidence: 0.73}
}

func TestApplyAdvancesProgress(t *testing.T) {
	quest := &models.Quest{ID: "no-plastic-week", Title: "No Plastic Week", Total: 7, XPReward: 150, Category: "Waste"}
	state := models.QuestState{UserID: "u1", QuestID: quest.ID, Progress: 2}
	user := models.UserProgression{UserID: "u1", XP: 100, Level: 1, Streak: 3}
	now := time.Now().UTC()

	newState, newUser, achievement, err := Apply(quest, state, user, validResult(), now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if newState.Progress != 3 {
		t.Errorf("expected progress 3, got %d", newState.Progress)
	}
	if newState.Completed {
		t.Error("quest should not be completed at 3/7")
	}
	if !newState.UpdatedAt.Equal(now) {
		t.Error("state timestamp not updated")
	}

	// No credit before completion
	if newUser.XP != 100 || newUser.Streak != 3 {
		t.Errorf("mid-quest step must not credit XP or streak: %+v", newUser)
	}
	if achievement != nil {
		t.Errorf("no achievement before completion, got %+v", achievement)
	}
}

func TestApplyCompletion(t *testing.T) {
	quest := &models.Quest{ID: "no-plastic-week", Title: "No Plastic Week", Total: 7, XPReward: 150, Category: "Waste"}
	state := models.QuestState{UserID: "u1", QuestID: quest.ID, Progress: 6}
	user := models.UserProgression{UserID: "u1", XP: 100, Level: 1, Streak: 3}
	now := time.Now().UTC()

	newState, newUser, achievement, err := Apply(quest, state, user, validResult(), now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if newState.Progress != 7 || !newState.Completed {
		t.Errorf("expected completed 7/7, got %d completed=%v", newState.Progress, newState.Completed)
	}

	if newUser.XP != 250 {
		t.Errorf("expected XP 250, got %d", newUser.XP)
	}
	if newUser.Level != models.LevelForXP(250) {
		t.Errorf("level not recomputed: %d", newUser.Level)
	}
	if newUser.Streak != 4 {
		t.Errorf("expected streak 4, got %d", newUser.Streak)
	}

	if achievement == nil {
		t.Fatal("expected achievement on completion")
	}
	if achievement.Name != "Waste Champion" {
		t.Errorf("expected 'Waste Champion', got %q", achievement.Name)
	}
	if achievement.Icon != "♻️" {
		t.Errorf("unexpected icon %q", achievement.Icon)
	}
	if achievement.UserID != "u1" {
		t.Errorf("achievement owner %q", achievement.UserID)
	}
	if !achievement.EarnedAt.Equal(now) {
		t.Error("achievement timestamp mismatch")
	}
}

func TestApplyIdempotentOnCompletedQuest(t *testing.T) {
	quest := &models.Quest{ID: "plant-a-sapling", Title: "Plant a Sapling", Total: 1, XPReward: 200, Category: "Biodiversity"}
	state := models.QuestState{UserID: "u1", QuestID: quest.ID, Progress: 1, Completed: true}
	user := models.UserProgression{UserID: "u1", XP: 200, Level: 2, Streak: 1}

	newState, newUser, achievement, err := Apply(quest, state, user, validResult(), time.Now().UTC())
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Progress clamps, completion stays, nothing is credited twice
	if newState.Progress != 1 || !newState.Completed {
		t.Errorf("completed quest state changed: %+v", newState)
	}
	if newUser.XP != 200 || newUser.Level != 2 || newUser.Streak != 1 {
		t.Errorf("completed quest credited again: %+v", newUser)
	}
	if achievement != nil {
		t.Errorf("achievement awarded twice: %+v", achievement)
	}
}

func TestApplyRejectsInvalidResult(t *testing.T) {
	quest := &models.Quest{ID: "q", Title: "Q", Total: 1, XPReward: 10}
	state := models.QuestState{UserID: "u1", QuestID: "q"}
	user := models.UserProgression{UserID: "u1"}

	_, _, _, err := Apply(quest, state, user, &models.VerificationResult{IsValid: false}, time.Now())
	if !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}

	_, _, _, err = Apply(quest, state, user, nil, time.Now())
	if !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult for nil result, got %v", err)
	}
}

func TestApplySingleStepQuest(t *testing.T) {
	quest := &models.Quest{ID: "plant-a-sapling", Title: "Plant a Sapling", Total: 1, XPReward: 200, Category: "Biodiversity"}
	state := models.QuestState{UserID: "u1", QuestID: quest.ID}
	user := models.UserProgression{UserID: "u1", Level: 1}
	now := time.Now().UTC()

	newState, newUser, achievement, err := Apply(quest, state, user, validResult(), now)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if newState.Progress != 1 || !newState.Completed {
		t.Errorf("single-step quest should complete on first acceptance: %+v", newState)
	}
	if newUser.XP != 200 {
		t.Errorf("expected XP 200, got %d", newUser.XP)
	}
	if newUser.Level != 2 {
		t.Errorf("expected level 2 at 200 XP, got %d", newUser.Level)
	}
	if achievement == nil || achievement.Name != "Biodiversity Champion" {
		t.Errorf("unexpected achievement: %+v", achievement)
	}
}

func TestLevelForXP(t *testing.T) {
	cases := []struct {
		xp   int
		want int
	}{
		{-50, 1},
		{0, 1},
		{199, 1},
		{200, 2},
		{399, 2},
		{400, 3},
		{1000, 6},
	}

	for _, tc := range cases {
		if got := models.LevelForXP(tc.xp); got != tc.want {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.want)
		}
	}
}

func TestAchievementForCategory(t *testing.T) {
	name, icon := AchievementForCategory("Energy")
	if name != "Energy Champion" || icon != "⚡" {
		t.Errorf("unexpected energy achievement: %s %s", name, icon)
	}

	// Unknown categories fall back to the default icon
	name, icon = AchievementForCategory("Biodiversity")
	if name != "Biodiversity Champion" || icon != "🌱" {
		t.Errorf("unexpected fallback achievement: %s %s", name, icon)
	}
}
