package service

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// maxReportedErrors caps the per-frame diagnostics attached to an
// insufficient-embeddings failure.
const maxReportedErrors = 5

// Aggregate folds gated frame outcomes into an enrollment record. Valid
// frames keep their capture order; embeddings and metadata stay positionally
// aligned. When fewer than minValid frames survived, it returns a
// *domain.InsufficientEmbeddingsError carrying the first rejections.
//
// The full rejection list is always returned so a successful enrollment can
// still report which frames were dropped.
func Aggregate(outcomes []domain.FrameOutcome, minValid int) (*domain.EnrollmentRecord, []string, error) {
	var (
		embeddings  [][]float32
		frames      []domain.FrameMetadata
		frameErrors []string
	)

	for i, outcome := range outcomes {
		if !outcome.Valid() {
			frameErrors = append(frameErrors,
				fmt.Sprintf("Frame %d (%s): %v", i+1, outcome.PoseLabel, outcome.Err))
			continue
		}

		embeddings = append(embeddings, outcome.Embedding)
		frames = append(frames, domain.FrameMetadata{
			Pose:       outcome.PoseLabel,
			Timestamp:  outcome.Timestamp,
			Confidence: outcome.Confidence,
			FaceRatio:  outcome.FaceRatio,
		})
	}

	if len(embeddings) < minValid {
		reported := frameErrors
		if len(reported) > maxReportedErrors {
			reported = reported[:maxReportedErrors]
		}
		return nil, frameErrors, &domain.InsufficientEmbeddingsError{
			Valid:       len(embeddings),
			Total:       len(outcomes),
			FrameErrors: reported,
		}
	}

	return newRecord(embeddings, frames), frameErrors, nil
}
