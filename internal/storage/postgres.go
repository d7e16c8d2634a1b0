package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ecoquest/quest-engine/internal/models"
)

// PostgresRepository implements Repository using PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int32
	MaxIdleConns int32
	MaxLifetime  time.Duration
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, cfg PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	} else {
		poolConfig.MaxConns = 25 // default
	}

	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	} else {
		poolConfig.MinConns = 5 // default
	}

	if cfg.MaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxLifetime
	} else {
		poolConfig.MaxConnLifetime = 30 * time.Minute
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

// Ping checks database connectivity
func (r *PostgresRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// GetQuestState retrieves a user's state for one quest
func (r *PostgresRepository) GetQuestState(ctx context.Context, userID, questID string) (*models.QuestState, error) {
	query := `
		SELECT user_id, quest_id, progress, completed, joined_at, updated_at
		FROM quest_states
		WHERE user_id = $1 AND quest_id = $2
	`

	var st models.QuestState
	var joinedAt sql.NullTime

	err := r.pool.QueryRow(ctx, query, userID, questID).Scan(
		&st.UserID,
		&st.QuestID,
		&st.Progress,
		&st.Completed,
		&joinedAt,
		&st.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get quest state: %w", err)
	}

	if joinedAt.Valid {
		st.JoinedAt = &joinedAt.Time
	}

	return &st, nil
}

// ListQuestStates retrieves all quest states for a user
func (r *PostgresRepository) ListQuestStates(ctx context.Context, userID string) ([]*models.QuestState, error) {
	query := `
		SELECT user_id, quest_id, progress, completed, joined_at, updated_at
		FROM quest_states
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quest states: %w", err)
	}
	defer rows.Close()

	var states []*models.QuestState
	for rows.Next() {
		var st models.QuestState
		var joinedAt sql.NullTime

		if err := rows.Scan(&st.UserID, &st.QuestID, &st.Progress, &st.Completed, &joinedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quest state: %w", err)
		}
		if joinedAt.Valid {
			st.JoinedAt = &joinedAt.Time
		}
		states = append(states, &st)
	}

	return states, rows.Err()
}

// JoinQuest registers a user as a quest participant. Joining twice is a
// no-op.
func (r *PostgresRepository) JoinQuest(ctx context.Context, userID, questID string) error {
	query := `
		INSERT INTO quest_states (user_id, quest_id, progress, completed, joined_at, updated_at)
		VALUES ($1, $2, 0, FALSE, NOW(), NOW())
		ON CONFLICT (user_id, quest_id)
		DO UPDATE SET joined_at = COALESCE(quest_states.joined_at, NOW())
	`

	if _, err := r.pool.Exec(ctx, query, userID, questID); err != nil {
		return fmt.Errorf("failed to join quest: %w", err)
	}
	return nil
}

// CountParticipants counts users who joined a quest
func (r *PostgresRepository) CountParticipants(ctx context.Context, questID string) (int, error) {
	query := `SELECT COUNT(*) FROM quest_states WHERE quest_id = $1 AND joined_at IS NOT NULL`

	var count int
	if err := r.pool.QueryRow(ctx, query, questID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// GetProgression retrieves a user's progression record, returning a
// fresh zero record for users with no row yet
func (r *PostgresRepository) GetProgression(ctx context.Context, userID string) (*models.UserProgression, error) {
	query := `
		SELECT user_id, xp, level, streak, updated_at
		FROM user_progression
		WHERE user_id = $1
	`

	var user models.UserProgression
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.XP,
		&user.Level,
		&user.Streak,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.UserProgression{
				UserID: userID,
				Level:  models.LevelForXP(0),
			}, nil
		}
		return nil, fmt.Errorf("failed to get progression: %w", err)
	}

	return &user, nil
}

// ApplyProgress runs the transition function inside a transaction with
// the user's progression row and quest state row locked. Concurrent
// submissions for the same user serialize here instead of racing.
func (r *PostgresRepository) ApplyProgress(ctx context.Context, userID, questID string, fn TransitionFunc) (*models.QuestState, *models.UserProgression, *models.Achievement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Ensure both rows exist before locking them
	if _, err := tx.Exec(ctx, `
		INSERT INTO user_progression (user_id, xp, level, streak, updated_at)
		VALUES ($1, 0, 1, 0, NOW())
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to ensure progression row: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO quest_states (user_id, quest_id, progress, completed, updated_at)
		VALUES ($1, $2, 0, FALSE, NOW())
		ON CONFLICT (user_id, quest_id) DO NOTHING
	`, userID, questID); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to ensure quest state row: %w", err)
	}

	var user models.UserProgression
	err = tx.QueryRow(ctx, `
		SELECT user_id, xp, level, streak, updated_at
		FROM user_progression
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&user.UserID, &user.XP, &user.Level, &user.Streak, &user.UpdatedAt)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to lock progression row: %w", err)
	}

	var state models.QuestState
	var joinedAt sql.NullTime
	err = tx.QueryRow(ctx, `
		SELECT user_id, quest_id, progress, completed, joined_at, updated_at
		FROM quest_states
		WHERE user_id = $1 AND quest_id = $2
		FOR UPDATE
	`, userID, questID).Scan(&state.UserID, &state.QuestID, &state.Progress, &state.Completed, &joinedAt, &state.UpdatedAt)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to lock quest state row: %w", err)
	}
	if joinedAt.Valid {
		state.JoinedAt = &joinedAt.Time
	}

	newState, newUser, achievement, err := fn(state, user)
	if err != nil {
		return nil, nil, nil, err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE quest_states
		SET progress = $3, completed = $4, updated_at = $5
		WHERE user_id = $1 AND quest_id = $2
	`, userID, questID, newState.Progress, newState.Completed, newState.UpdatedAt); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to update quest state: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE user_progression
		SET xp = $2, level = $3, streak = $4, updated_at = $5
		WHERE user_id = $1
	`, userID, newUser.XP, newUser.Level, newUser.Streak, newUser.UpdatedAt); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to update progression: %w", err)
	}

	if achievement != nil {
		if _, err := tx.Exec(ctx, `
			INSERT INTO achievements (id, user_id, name, icon, description, earned_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, achievement.ID, achievement.UserID, achievement.Name, achievement.Icon,
			achievement.Description, achievement.EarnedAt); err != nil {
			return nil, nil, nil, fmt.Errorf("failed to insert achievement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to commit progress: %w", err)
	}

	return &newState, &newUser, achievement, nil
}

// ListAchievements retrieves a user's achievements, most recent first
func (r *PostgresRepository) ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	query := `
		SELECT id, user_id, name, icon, description, earned_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var achievements []*models.Achievement
	for rows.Next() {
		var a models.Achievement
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Icon, &a.Description, &a.EarnedAt); err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		achievements = append(achievements, &a)
	}

	return achievements, rows.Err()
}

// CreateSubmission records one evidence submission
func (r *PostgresRepository) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, quest_id, artifact_name, size_bytes, media_type, is_valid, confidence, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		sub.ID,
		sub.UserID,
		sub.QuestID,
		sub.ArtifactName,
		sub.SizeBytes,
		sub.MediaType,
		sub.IsValid,
		sub.Confidence,
		sub.SubmittedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}

	return nil
}

// ListSubmissions retrieves a user's submission history, most recent
// first
func (r *PostgresRepository) ListSubmissions(ctx context.Context, userID string, limit int) ([]*models.Submission, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, user_id, quest_id, artifact_name, size_bytes, media_type, is_valid, confidence, submitted_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY submitted_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(&s.ID, &s.UserID, &s.QuestID, &s.ArtifactName, &s.SizeBytes,
			&s.MediaType, &s.IsValid, &s.Confidence, &s.SubmittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, &s)
	}

	return subs, rows.Err()
}

// DeleteSubmissionsBefore prunes rejected submissions older than the
// cutoff. Accepted submissions are kept as the progression audit trail.
func (r *PostgresRepository) DeleteSubmissionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM submissions WHERE submitted_at < $1 AND is_valid = FALSE`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old submissions: %w", err)
	}
	return tag.RowsAffected(), nil
}
