// Package service implements the enrollment and verification flows over the
// frame gates, the similarity engine and the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/store"
)

// FrameValidator gates one frame. Satisfied by *frame.Validator.
type FrameValidator interface {
	Validate(ctx context.Context, imageBytes []byte, poseLabel string) domain.FrameOutcome
}

// EnrollmentResult summarizes a successful enrollment for the API response.
// FrameErrors lists every rejected frame even on success; the client decides
// whether to surface them.
type EnrollmentResult struct {
	EnrolledCount int
	Frames        []domain.FrameMetadata
	FrameErrors   []string
}

// StatusResult is the enrollment status snapshot.
type StatusResult struct {
	Enrolled        bool
	EmbeddingsCount int
	Metadata        *domain.EnrollmentMetadata
}

type EnrollmentService struct {
	validator FrameValidator
	store     store.Store
	logger    *slog.Logger
	minValid  int
}

func NewEnrollmentService(validator FrameValidator, st store.Store, logger *slog.Logger, minValid int) *EnrollmentService {
	if minValid <= 0 {
		minValid = 5
	}
	return &EnrollmentService{
		validator: validator,
		store:     st,
		logger:    logger,
		minValid:  minValid,
	}
}

// Enroll gates every frame, aggregates the survivors and replaces the stored
// enrollment. Frames are processed in order; a rejected frame never aborts
// the batch.
func (s *EnrollmentService) Enroll(ctx context.Context, frames []domain.RawFrame) (*EnrollmentResult, error) {
	if len(frames) < s.minValid {
		return nil, domain.ErrBadRequest.WithError(
			fmt.Errorf("insufficient frames: %d provided, minimum %d required", len(frames), s.minValid))
	}

	outcomes := make([]domain.FrameOutcome, 0, len(frames))
	for _, f := range frames {
		if f.Err != nil {
			outcomes = append(outcomes, domain.RejectedFrame(f.PoseLabel, f.Err))
			continue
		}
		outcomes = append(outcomes, s.validator.Validate(ctx, f.Image, f.PoseLabel))
	}

	record, frameErrors, err := Aggregate(outcomes, s.minValid)
	if err != nil {
		s.logger.Warn("enrollment rejected",
			slog.Int("frames", len(frames)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	if err := s.store.Save(ctx, record); err != nil {
		return nil, domain.ErrStoreWrite.WithError(err)
	}

	s.logger.Info("enrollment saved",
		slog.String("enrollment_id", record.ID.String()),
		slog.Int("embeddings", len(record.Embeddings)),
		slog.Int("rejected_frames", len(frameErrors)),
	)

	return &EnrollmentResult{
		EnrolledCount: len(record.Embeddings),
		Frames:        record.Frames,
		FrameErrors:   frameErrors,
	}, nil
}

// Status reports whether an enrollment exists and, when it does, how many
// embeddings it holds. An enrollment whose artifacts cannot be read is
// reported with a zero count rather than failing the call.
func (s *EnrollmentService) Status(ctx context.Context) (*StatusResult, error) {
	enrolled, err := s.store.IsEnrolled(ctx)
	if err != nil {
		return nil, domain.ErrStoreRead.WithError(err)
	}

	result := &StatusResult{Enrolled: enrolled}
	if !enrolled {
		return result, nil
	}

	embeddings, err := s.store.LoadEmbeddings(ctx)
	if err != nil {
		return nil, domain.ErrStoreRead.WithError(err)
	}
	result.EmbeddingsCount = len(embeddings)

	metadata, err := s.store.LoadMetadata(ctx)
	if err != nil {
		return nil, domain.ErrStoreRead.WithError(err)
	}
	result.Metadata = metadata

	return result, nil
}

// Clear deletes the enrollment. Deleting when nothing is enrolled is an
// error so the client learns the store was already empty.
func (s *EnrollmentService) Clear(ctx context.Context) error {
	enrolled, err := s.store.IsEnrolled(ctx)
	if err != nil {
		return domain.ErrStoreRead.WithError(err)
	}
	if !enrolled {
		return domain.ErrNothingToDelete
	}

	if err := s.store.Clear(ctx); err != nil {
		return domain.ErrStoreWrite.WithError(err)
	}

	s.logger.Info("enrollment cleared")
	return nil
}

// newRecord stamps a fresh enrollment identity.
func newRecord(embeddings [][]float32, frames []domain.FrameMetadata) *domain.EnrollmentRecord {
	return &domain.EnrollmentRecord{
		ID:         uuid.New(),
		Embeddings: embeddings,
		Frames:     frames,
		Version:    domain.EnrollmentVersion,
		CreatedAt:  time.Now().UTC(),
	}
}
