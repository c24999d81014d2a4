package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/similarity"
	"github.com/saturnino-fabrica-de-software/rosto/internal/store"
)

type VerificationService struct {
	validator FrameValidator
	store     store.Store
	logger    *slog.Logger
	threshold float64
}

func NewVerificationService(validator FrameValidator, st store.Store, logger *slog.Logger, threshold float64) *VerificationService {
	if threshold <= 0 {
		threshold = 0.6
	}
	return &VerificationService{
		validator: validator,
		store:     st,
		logger:    logger,
		threshold: threshold,
	}
}

// Threshold returns the similarity cutoff the service decides with.
func (s *VerificationService) Threshold() float64 {
	return s.threshold
}

// Verify gates the probe image and compares it against every stored
// embedding. A probe that fails the gates is a non-match, not an error:
// only a missing or unreadable enrollment fails the call.
func (s *VerificationService) Verify(ctx context.Context, imageBytes []byte) (*domain.VerificationResult, error) {
	start := time.Now()

	enrolled, err := s.store.IsEnrolled(ctx)
	if err != nil {
		return nil, domain.ErrStoreRead.WithError(err)
	}
	if !enrolled {
		return nil, domain.ErrNotEnrolled
	}

	stored, err := s.store.LoadEmbeddings(ctx)
	if err != nil {
		return nil, domain.ErrStoreRead.WithError(err)
	}
	if stored == nil {
		// Enrolled but unreadable: artifacts exist yet decode failed.
		return nil, domain.ErrStoreRead.WithError(fmt.Errorf("stored embeddings unreadable"))
	}

	outcome := s.validator.Validate(ctx, imageBytes, "verification")
	if outcome.Err != nil {
		return &domain.VerificationResult{
			IsMatch:        false,
			BestSimilarity: 0,
			Message:        fmt.Sprintf("Face processing failed: %v", outcome.Err),
			LatencyMs:      time.Since(start).Milliseconds(),
		}, nil
	}

	_, best := similarity.BestMatch(outcome.Embedding, stored)
	isMatch := best >= s.threshold

	var message string
	if isMatch {
		message = fmt.Sprintf("Face verified with similarity: %.4f", best)
	} else {
		message = fmt.Sprintf("Face not verified. Best similarity: %.4f (threshold: %g)", best, s.threshold)
	}

	result := &domain.VerificationResult{
		IsMatch:        isMatch,
		BestSimilarity: best,
		Message:        message,
		LatencyMs:      time.Since(start).Milliseconds(),
	}

	s.logger.Info("verification completed",
		slog.Bool("match", result.IsMatch),
		slog.Float64("best_similarity", result.BestSimilarity),
		slog.Int64("latency_ms", result.LatencyMs),
	)

	return result, nil
}
