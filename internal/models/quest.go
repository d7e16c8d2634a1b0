package models

import (
	"time"
)

// Difficulty grades how demanding a quest is
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether the difficulty is one of the known grades
func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

// Quest is a sustainability task definition from the catalog.
// Progress and Completed are per-user state, mutated only by the
// progression state machine.
type Quest struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Progress     int        `json:"progress"`
	Total        int        `json:"total"`
	XPReward     int        `json:"xp_reward"`
	Difficulty   Difficulty `json:"difficulty"`
	Category     string     `json:"category"`
	Completed    bool       `json:"completed"`
	Deadline     *time.Time `json:"deadline,omitempty"`
	Participants int        `json:"participants,omitempty"`
}

// IsCompleted reports whether progress has reached the total
func (q *Quest) IsCompleted() bool {
	return q.Progress >= q.Total
}

// PastDeadline reports whether the quest deadline has elapsed
func (q *Quest) PastDeadline(now time.Time) bool {
	if q.Deadline == nil {
		return false
	}
	return now.After(*q.Deadline)
}

// QuestState is the per-user slice of quest progress kept in storage
type QuestState struct {
	UserID    string     `json:"user_id"`
	QuestID   string     `json:"quest_id"`
	Progress  int        `json:"progress"`
	Completed bool       `json:"completed"`
	UpdatedAt time.Time  `json:"updated_at"`
	JoinedAt  *time.Time `json:"joined_at,omitempty"`
}
