package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ecoquest/quest-engine/internal/catalog"
	"github.com/ecoquest/quest-engine/internal/classifier"
	"github.com/ecoquest/quest-engine/internal/config"
	"github.com/ecoquest/quest-engine/internal/events"
	"github.com/ecoquest/quest-engine/internal/models"
	"github.com/ecoquest/quest-engine/internal/storage"
)

// Common errors
var (
	ErrQuestNotFound   = errors.New("quest not found")
	ErrInvalidArtifact = errors.New("invalid artifact")
)

// allowedMediaTypes are the artifact media types accepted before
// classification runs
var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Engine runs the evidence verification pipeline: admission checks,
// profile lookup, classification, scoring and the accept/reject
// decision. It writes no progression state; applying a valid result is
// the progression service's job.
type Engine struct {
	registry   *catalog.Loader
	classifier classifier.Classifier
	scorer     *Scorer
	cfg        config.VerificationConfig
	repo       storage.Repository
	hub        *events.Hub
}

// NewEngine creates a verification engine
func NewEngine(
	registry *catalog.Loader,
	cls classifier.Classifier,
	cfg config.VerificationConfig,
	repo storage.Repository,
	hub *events.Hub,
) *Engine {
	return &Engine{
		registry:   registry,
		classifier: cls,
		scorer:     NewScorer(cfg.BaseWeight, cfg.MatchWeight),
		cfg:        cfg,
		repo:       repo,
		hub:        hub,
	}
}

// Tips returns the upfront photo tips for a quest
func (e *Engine) Tips(questID string) ([]string, error) {
	profile := e.registry.GetProfile(questID)
	if profile == nil {
		return nil, ErrQuestNotFound
	}
	return TipsForCategory(profile.Category), nil
}

// SubmitEvidence verifies one evidence artifact against a quest's
// profile. It fails fast with ErrQuestNotFound or ErrInvalidArtifact
// before classification; a classifier failure degrades to an invalid
// result instead of an error. Context cancellation aborts the in-flight
// classification with no state written.
func (e *Engine) SubmitEvidence(ctx context.Context, userID, questID string, artifact models.Artifact) (*models.VerificationResult, error) {
	quest := e.registry.Get(questID)
	profile := e.registry.GetProfile(questID)
	if quest == nil || profile == nil {
		return nil, ErrQuestNotFound
	}

	if err := e.admit(artifact); err != nil {
		return nil, err
	}

	e.publish(events.Event{Type: events.TypeReceived, UserID: userID, QuestID: questID,
		Message: fmt.Sprintf("evidence received for %q", quest.Title)})
	e.publish(events.Event{Type: events.TypeClassifying, UserID: userID, QuestID: questID,
		Message: "analyzing photo"})

	classification, err := e.classifier.Classify(ctx, artifact)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		// Degrade to an explicit reject; one bad submission must never
		// abort the user's session.
		slog.Error("classification failed", "quest_id", questID, "user_id", userID, "error", err)
		result := FailureResult()
		e.record(ctx, userID, questID, artifact, result)
		return result, nil
	}

	score := e.scorer.Score(profile, classification)
	e.publish(events.Event{Type: events.TypeScored, UserID: userID, QuestID: questID,
		Confidence: score.FinalConfidence,
		Message:    fmt.Sprintf("%d of %d expected elements matched", len(score.MatchedLabels), len(profile.ExpectedLabels))})

	result := Decide(quest, profile, classification, score)
	e.publish(events.Event{Type: events.TypeDecided, UserID: userID, QuestID: questID,
		Confidence: result.Confidence,
		Message:    result.Feedback})

	slog.Info("evidence verified",
		"quest_id", questID,
		"user_id", userID,
		"valid", result.IsValid,
		"confidence", result.Confidence,
		"matched", len(score.MatchedLabels),
	)

	e.record(ctx, userID, questID, artifact, result)
	return result, nil
}

// admit runs the basic admission checks that short-circuit
// classification
func (e *Engine) admit(artifact models.Artifact) error {
	if !allowedMediaTypes[artifact.MediaType] {
		return fmt.Errorf("%w: media type %q is not supported", ErrInvalidArtifact, artifact.MediaType)
	}
	if artifact.SizeBytes < e.cfg.MinArtifactBytes {
		return fmt.Errorf("%w: artifact is too small (%d bytes, minimum %d)",
			ErrInvalidArtifact, artifact.SizeBytes, e.cfg.MinArtifactBytes)
	}
	if artifact.SizeBytes > e.cfg.MaxArtifactBytes {
		return fmt.Errorf("%w: artifact is too large (%d bytes, maximum %d)",
			ErrInvalidArtifact, artifact.SizeBytes, e.cfg.MaxArtifactBytes)
	}
	return nil
}

// record writes the submission audit row; a storage hiccup must not
// discard an already-computed verdict
func (e *Engine) record(ctx context.Context, userID, questID string, artifact models.Artifact, result *models.VerificationResult) {
	if e.repo == nil {
		return
	}

	sub := &models.Submission{
		ID:           uuid.New().String(),
		UserID:       userID,
		QuestID:      questID,
		ArtifactName: artifact.Name,
		SizeBytes:    artifact.SizeBytes,
		MediaType:    artifact.MediaType,
		IsValid:      result.IsValid,
		Confidence:   result.Confidence,
		SubmittedAt:  time.Now().UTC(),
	}

	if err := e.repo.CreateSubmission(ctx, sub); err != nil {
		slog.Error("failed to record submission", "error", err, "quest_id", questID, "user_id", userID)
	}
}

func (e *Engine) publish(event events.Event) {
	if e.hub != nil {
		e.hub.Publish(event)
	}
}
