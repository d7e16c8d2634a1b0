package verify

import (
	"fmt"
	"math"

	"github.com/ecoquest/quest-engine/internal/models"
)

// Decide applies the profile threshold to a score and produces the
// verification result. Validity requires both the confidence threshold
// and at least one matched label, so a well-lit but irrelevant photo
// still fails.
func Decide(quest *models.Quest, profile *models.VerificationProfile, classification *models.Classification, score Score) *models.VerificationResult {
	isValid := score.FinalConfidence >= profile.MinConfidence && len(score.MatchedLabels) > 0

	result := &models.VerificationResult{
		IsValid:        isValid,
		Confidence:     score.FinalConfidence,
		DetectedLabels: classification.Labels,
	}

	if isValid {
		result.Feedback = fmt.Sprintf(
			"Your photo successfully demonstrates %q. Relevant elements were detected with %d%% confidence.",
			quest.Title, int(math.Round(score.FinalConfidence*100)),
		)
		return result
	}

	result.Feedback = fmt.Sprintf(
		"The uploaded photo doesn't clearly show evidence of %q. Please try a clearer, more relevant photo.",
		quest.Title,
	)
	result.Suggestions = SuggestionsForCategory(profile.Category)
	return result
}

// FailureResult builds the degraded result returned when classification
// itself fails; a bad submission never aborts the user's session.
func FailureResult() *models.VerificationResult {
	return &models.VerificationResult{
		IsValid:        false,
		Confidence:     0,
		DetectedLabels: []string{},
		Feedback:       "Error processing the photo. Please try again with a different image.",
		Suggestions:    artifactSuggestions,
	}
}
