package verify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ecoquest/quest-engine/internal/catalog"
	"github.com/ecoquest/quest-engine/internal/config"
	"github.com/ecoquest/quest-engine/internal/events"
	"github.com/ecoquest/quest-engine/internal/models"
	"github.com/ecoquest/quest-engine/internal/storage"
)

// stubClassifier returns a fixed classification or error and counts calls
type stubClassifier struct {
	classification *models.Classification
	err            error
	calls          int
}

func (s *stubClassifier) Classify(ctx context.Context, artifact models.Artifact) (*models.Classification, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.classification, nil
}

// recordingRepo captures submissions; other Repository methods are unused
// by the engine
type recordingRepo struct {
	submissions []*models.Submission
	createErr   error
}

func (r *recordingRepo) GetQuestState(ctx context.Context, userID, questID string) (*models.QuestState, error) {
	return nil, storage.ErrNotFound
}

func (r *recordingRepo) ListQuestStates(ctx context.Context, userID string) ([]*models.QuestState, error) {
	return nil, nil
}

func (r *recordingRepo) JoinQuest(ctx context.Context, userID, questID string) error { return nil }

func (r *recordingRepo) CountParticipants(ctx context.Context, questID string) (int, error) {
	return 0, nil
}

func (r *recordingRepo) GetProgression(ctx context.Context, userID string) (*models.UserProgression, error) {
	return nil, storage.ErrNotFound
}

func (r *recordingRepo) ApplyProgress(ctx context.Context, userID, questID string, fn storage.TransitionFunc) (*models.QuestState, *models.UserProgression, *models.Achievement, error) {
	return nil, nil, nil, errors.New("not implemented")
}

func (r *recordingRepo) ListAchievements(ctx context.Context, userID string) ([]*models.Achievement, error) {
	return nil, nil
}

func (r *recordingRepo) CreateSubmission(ctx context.Context, sub *models.Submission) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.submissions = append(r.submissions, sub)
	return nil
}

func (r *recordingRepo) ListSubmissions(ctx context.Context, userID string, limit int) ([]*models.Submission, error) {
	return r.submissions, nil
}

func (r *recordingRepo) DeleteSubmissionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *recordingRepo) Ping(ctx context.Context) error { return nil }
func (r *recordingRepo) Close() error                   { return nil }

func testConfig() config.VerificationConfig {
	return config.VerificationConfig{
		BaseWeight:       0.6,
		MatchWeight:      0.4,
		MinArtifactBytes: 10 * 1024,
		MaxArtifactBytes: 10 * 1024 * 1024,
	}
}

func testRegistry() *catalog.Loader {
	registry := catalog.NewLoader()
	registry.Add(
		&models.Quest{
			ID:         "plant-a-sapling",
			Title:      "Plant a Sapling",
			Total:      1,
			XPReward:   200,
			Difficulty: models.DifficultyEasy,
			Category:   "Biodiversity",
		},
		&models.VerificationProfile{
			QuestID:        "plant-a-sapling",
			Category:       "biodiversity",
			ExpectedLabels: []string{"plant", "sapling", "tree", "soil", "pot", "garden", "hands", "green"},
			MinConfidence:  0.6,
		},
	)
	return registry
}

func goodArtifact() models.Artifact {
	return models.Artifact{
		Name:      "sapling_in_garden.jpg",
		SizeBytes: 1_500_000,
		MediaType: "image/jpeg",
	}
}

func TestSubmitEvidenceAccepts(t *testing.T) {
	cls := &stubClassifier{classification: &models.Classification{
		Labels:         []string{"plant", "sapling", "soil", "hands", "green"},
		BaseConfidence: 0.80,
	}}
	repo := &recordingRepo{}
	engine := NewEngine(testRegistry(), cls, testConfig(), repo, events.NewHub())

	result, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", goodArtifact())
	if err != nil {
		t.Fatalf("SubmitEvidence failed: %v", err)
	}

	if !result.IsValid {
		t.Errorf("expected valid result, got feedback %q", result.Feedback)
	}
	// 0.80*0.6 + (5/8)*0.4 = 0.73
	if result.Confidence < 0.729 || result.Confidence > 0.731 {
		t.Errorf("expected confidence 0.73, got %f", result.Confidence)
	}
	if !strings.Contains(result.Feedback, "Plant a Sapling") {
		t.Errorf("feedback should name the quest: %q", result.Feedback)
	}
	if !strings.Contains(result.Feedback, "73%") {
		t.Errorf("feedback should carry the rounded confidence: %q", result.Feedback)
	}

	// Audit row written
	if len(repo.submissions) != 1 {
		t.Fatalf("expected 1 recorded submission, got %d", len(repo.submissions))
	}
	sub := repo.submissions[0]
	if sub.UserID != "user-1" || sub.QuestID != "plant-a-sapling" || !sub.IsValid {
		t.Errorf("unexpected submission record: %+v", sub)
	}
}

func TestSubmitEvidenceRejectsZeroOverlap(t *testing.T) {
	// High raw confidence about entirely irrelevant content must not pass
	cls := &stubClassifier{classification: &models.Classification{
		Labels:         []string{"car", "road", "building"},
		BaseConfidence: 0.90,
	}}
	repo := &recordingRepo{}
	engine := NewEngine(testRegistry(), cls, testConfig(), repo, events.NewHub())

	result, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", goodArtifact())
	if err != nil {
		t.Fatalf("SubmitEvidence failed: %v", err)
	}

	if result.IsValid {
		t.Error("expected rejection with zero label overlap")
	}
	if len(result.Suggestions) == 0 {
		t.Error("rejection should carry suggestions")
	}
	if len(repo.submissions) != 1 || repo.submissions[0].IsValid {
		t.Error("rejected submission should still be recorded as invalid")
	}
}

func TestSubmitEvidenceUnknownQuest(t *testing.T) {
	cls := &stubClassifier{}
	engine := NewEngine(testRegistry(), cls, testConfig(), &recordingRepo{}, nil)

	_, err := engine.SubmitEvidence(context.Background(), "user-1", "no-such-quest", goodArtifact())
	if !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("expected ErrQuestNotFound, got %v", err)
	}
	if cls.calls != 0 {
		t.Error("classifier must not run for an unknown quest")
	}
}

func TestSubmitEvidenceAdmissionChecks(t *testing.T) {
	cases := []struct {
		name     string
		artifact models.Artifact
	}{
		{"unsupported media type", models.Artifact{Name: "clip.gif", SizeBytes: 500, MediaType: "image/gif"}},
		{"too small", models.Artifact{Name: "tiny.jpg", SizeBytes: 500, MediaType: "image/jpeg"}},
		{"too large", models.Artifact{Name: "huge.jpg", SizeBytes: 20 * 1024 * 1024, MediaType: "image/jpeg"}},
	}

	for _, tc := range cases {
		cls := &stubClassifier{}
		repo := &recordingRepo{}
		engine := NewEngine(testRegistry(), cls, testConfig(), repo, nil)

		_, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", tc.artifact)
		if !errors.Is(err, ErrInvalidArtifact) {
			t.Errorf("%s: expected ErrInvalidArtifact, got %v", tc.name, err)
		}
		if cls.calls != 0 {
			t.Errorf("%s: classifier must not run for an inadmissible artifact", tc.name)
		}
		if len(repo.submissions) != 0 {
			t.Errorf("%s: inadmissible artifact must not be recorded", tc.name)
		}
	}
}

func TestSubmitEvidenceClassifierFailureDegrades(t *testing.T) {
	cls := &stubClassifier{err: errors.New("model offline")}
	repo := &recordingRepo{}
	engine := NewEngine(testRegistry(), cls, testConfig(), repo, nil)

	result, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", goodArtifact())
	if err != nil {
		t.Fatalf("classifier failure should degrade, not error: %v", err)
	}
	if result.IsValid {
		t.Error("degraded result must be invalid")
	}
	if len(result.Suggestions) == 0 {
		t.Error("degraded result should carry suggestions")
	}
	if len(repo.submissions) != 1 {
		t.Error("degraded result should still be recorded")
	}
}

func TestSubmitEvidenceCancellationPropagates(t *testing.T) {
	cls := &stubClassifier{err: context.Canceled}
	repo := &recordingRepo{}
	engine := NewEngine(testRegistry(), cls, testConfig(), repo, nil)

	_, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", goodArtifact())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if len(repo.submissions) != 0 {
		t.Error("cancelled submission must not be recorded")
	}
}

func TestSubmitEvidencePublishesStages(t *testing.T) {
	hub := events.NewHub()
	sub, cancel := hub.Subscribe()
	defer cancel()

	cls := &stubClassifier{classification: &models.Classification{
		Labels:         []string{"plant"},
		BaseConfidence: 0.80,
	}}
	engine := NewEngine(testRegistry(), cls, testConfig(), &recordingRepo{}, hub)

	if _, err := engine.SubmitEvidence(context.Background(), "user-1", "plant-a-sapling", goodArtifact()); err != nil {
		t.Fatalf("SubmitEvidence failed: %v", err)
	}

	want := []events.Type{events.TypeReceived, events.TypeClassifying, events.TypeScored, events.TypeDecided}
	for _, wantType := range want {
		select {
		case e := <-sub:
			if e.Type != wantType {
				t.Errorf("expected event %s, got %s", wantType, e.Type)
			}
			if e.UserID != "user-1" || e.QuestID != "plant-a-sapling" {
				t.Errorf("event missing attribution: %+v", e)
			}
		default:
			t.Fatalf("missing %s event", wantType)
		}
	}
}

func TestTips(t *testing.T) {
	engine := NewEngine(testRegistry(), &stubClassifier{}, testConfig(), nil, nil)

	tips, err := engine.Tips("plant-a-sapling")
	if err != nil {
		t.Fatalf("Tips failed: %v", err)
	}
	if len(tips) == 0 {
		t.Error("expected tips for a known quest")
	}

	if _, err := engine.Tips("no-such-quest"); !errors.Is(err, ErrQuestNotFound) {
		t.Errorf("expected ErrQuestNotFound, got %v", err)
	}
}
