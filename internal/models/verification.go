package models

import (
	"time"
)

// VerificationProfile configures what evidence a quest expects.
// Profiles are immutable once loaded from the catalog.
type VerificationProfile struct {
	QuestID         string   `yaml:"-" json:"quest_id"`
	Category        string   `yaml:"category" json:"category"`
	ExpectedLabels  []string `yaml:"expected_labels" json:"expected_labels"`
	MinConfidence   float64  `yaml:"min_confidence" json:"min_confidence"`
	ContextualRules []string `yaml:"contextual_rules" json:"contextual_rules,omitempty"`
}

// Artifact describes a submitted evidence photo. Only the declared
// metadata crosses the engine boundary; blob storage is the caller's
// concern.
type Artifact struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"size_bytes"`
	MediaType string `json:"media_type"`
}

// Classification is the raw signal a classifier extracts from an
// artifact before profile-specific scoring.
type Classification struct {
	Labels         []string `json:"labels"`
	BaseConfidence float64  `json:"base_confidence"`
}

// VerificationResult is the engine's verdict on a submission.
// Suggestions is populated only when IsValid is false.
type VerificationResult struct {
	IsValid        bool     `json:"is_valid"`
	Confidence     float64  `json:"confidence"`
	DetectedLabels []string `json:"detected_labels"`
	Feedback       string   `json:"feedback"`
	Suggestions    []string `json:"suggestions,omitempty"`
}

// Submission is the audit record of one evidence submission
type Submission struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	QuestID      string    `json:"quest_id"`
	ArtifactName string    `json:"artifact_name"`
	SizeBytes    int64     `json:"size_bytes"`
	MediaType    string    `json:"media_type"`
	IsValid      bool      `json:"is_valid"`
	Confidence   float64   `json:"confidence"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
