package verify

import (
	"strings"

	"github.com/ecoquest/quest-engine/internal/models"
)

// Score is the outcome of matching classifier output against a profile
type Score struct {
	MatchedLabels   []string
	MatchScore      float64
	FinalConfidence float64
}

// Scorer blends raw classifier confidence with semantic label overlap.
// A classifier can be confident about the wrong thing and overlap alone
// ignores image quality, so both signals are weighted into the final
// confidence.
type Scorer struct {
	baseWeight  float64
	matchWeight float64
}

// NewScorer creates a scorer with the given blend weights
func NewScorer(baseWeight, matchWeight float64) *Scorer {
	return &Scorer{baseWeight: baseWeight, matchWeight: matchWeight}
}

// Score matches detected labels against the profile's expected labels
// and computes the final confidence. Both matchScore and the final
// confidence are clamped to [0,1].
func (s *Scorer) Score(profile *models.VerificationProfile, classification *models.Classification) Score {
	matched := matchLabels(classification.Labels, profile.ExpectedLabels)

	expected := len(profile.ExpectedLabels)
	if expected < 1 {
		expected = 1
	}

	matchScore := clamp01(float64(len(matched)) / float64(expected))
	final := clamp01(clamp01(classification.BaseConfidence)*s.baseWeight + matchScore*s.matchWeight)

	return Score{
		MatchedLabels:   matched,
		MatchScore:      matchScore,
		FinalConfidence: final,
	}
}

// matchLabels returns the detected labels that match any expected label.
// Matching is case-insensitive and bidirectional on substring
// containment, so "plant" matches "plants" and vice versa.
func matchLabels(detected, expected []string) []string {
	var matched []string
	for _, label := range detected {
		l := strings.ToLower(label)
		for _, want := range expected {
			w := strings.ToLower(want)
			if strings.Contains(l, w) || strings.Contains(w, l) {
				matched = append(matched, label)
				break
			}
		}
	}
	return matched
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
