// Package leaderboard ranks users by XP in a Redis sorted set. The
// database stays the source of truth; the sorted set is refreshed on
// every XP change and can be rebuilt from storage at any time.
package leaderboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/ecoquest/quest-engine/internal/models"
)

const rankingKey = "quest:leaderboard:xp"

// Entry is one leaderboard row
type Entry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	XP     int    `json:"xp"`
	Level  int    `json:"level"`
}

// Leaderboard is the Redis-backed XP ranking
type Leaderboard struct {
	client *redis.Client
}

// New connects to Redis and creates a leaderboard
func New(address, password string, db int) (*Leaderboard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Leaderboard{client: client}, nil
}

// Record sets a user's XP score. Called after every XP-changing
// progression update.
func (l *Leaderboard) Record(ctx context.Context, userID string, xp int) error {
	err := l.client.ZAdd(ctx, rankingKey, redis.Z{
		Score:  float64(xp),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to record xp: %w", err)
	}

	slog.Debug("leaderboard updated", "user_id", userID, "xp", xp)
	return nil
}

// Top returns the highest-XP users with their ranks, best first
func (l *Leaderboard) Top(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 10
	}

	scores, err := l.client.ZRevRangeWithScores(ctx, rankingKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard: %w", err)
	}

	entries := make([]Entry, 0, len(scores))
	for i, z := range scores {
		userID, _ := z.Member.(string)
		xp := int(z.Score)
		entries = append(entries, Entry{
			Rank:   i + 1,
			UserID: userID,
			XP:     xp,
			Level:  models.LevelForXP(xp),
		})
	}

	return entries, nil
}

// Rank returns a user's 1-based rank, or 0 when the user is unranked
func (l *Leaderboard) Rank(ctx context.Context, userID string) (int, error) {
	rank, err := l.client.ZRevRank(ctx, rankingKey, userID).Result()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read rank: %w", err)
	}
	return int(rank) + 1, nil
}

// HealthCheck verifies Redis connectivity
func (l *Leaderboard) HealthCheck(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (l *Leaderboard) Close() error {
	return l.client.Close()
}
