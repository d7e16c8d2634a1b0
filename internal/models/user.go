package models

import (
	"time"
)

// XPPerLevel is the amount of experience needed to advance one level.
const XPPerLevel = 200

// UserProgression is a user's persistent XP/level/streak record.
// XP never decreases; Level is always recomputed from XP, never stored
// independently of it.
type UserProgression struct {
	UserID    string    `json:"user_id"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	Streak    int       `json:"streak"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LevelForXP returns the level implied by an XP total.
func LevelForXP(xp int) int {
	if xp < 0 {
		xp = 0
	}
	return xp/XPPerLevel + 1
}

// XPIntoLevel returns how far into the current level the user is.
func (u *UserProgression) XPIntoLevel() int {
	return u.XP % XPPerLevel
}

// Achievement is an immutable record of a completed milestone.
// The achievements list is ordered most-recent-first.
type Achievement struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Name        string    `json:"name"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	EarnedAt    time.Time `json:"earned_at"`
}
