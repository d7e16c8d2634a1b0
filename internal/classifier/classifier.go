// Package classifier extracts candidate labels and a base confidence
// from a submitted evidence artifact. The Classifier interface is the
// seam where a real image-understanding service plugs in; the bundled
// heuristic implementation works from declared artifact metadata only.
package classifier

import (
	"context"
	"errors"

	"github.com/ecoquest/quest-engine/internal/models"
)

// ErrUnreadableArtifact is returned when the artifact metadata is malformed
var ErrUnreadableArtifact = errors.New("artifact is unreadable")

// Classifier produces raw classification signal for an artifact.
// Implementations must return labels and a base confidence in [0,1]
// and must honor context cancellation, since classification is the
// engine's only long-running step.
type Classifier interface {
	Classify(ctx context.Context, artifact models.Artifact) (*models.Classification, error)
}
