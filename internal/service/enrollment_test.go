package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rawFrames(poses ...string) []domain.RawFrame {
	frames := make([]domain.RawFrame, len(poses))
	for i, pose := range poses {
		frames[i] = domain.RawFrame{
			PoseLabel: pose,
			Image:     []byte(fmt.Sprintf("frame-%d", i)),
		}
	}
	return frames
}

func TestEnrollmentService_Enroll(t *testing.T) {
	ctx := context.Background()

	t.Run("saves enrollment when every frame passes", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up", "down")
		for i, f := range frames {
			validator.On("Validate", ctx, f.Image, f.PoseLabel).
				Return(validOutcome(f.PoseLabel, float32(i)*0.1)).Once()
		}
		st.On("Save", ctx, mock.AnythingOfType("*domain.EnrollmentRecord")).Return(nil).Once()

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		result, err := svc.Enroll(ctx, frames)

		require.NoError(t, err)
		assert.Equal(t, 5, result.EnrolledCount)
		assert.Len(t, result.Frames, 5)
		assert.Empty(t, result.FrameErrors)

		saved := st.Calls[0].Arguments.Get(1).(*domain.EnrollmentRecord)
		assert.Len(t, saved.Embeddings, 5)
		assert.Equal(t, domain.EnrollmentVersion, saved.Version)

		validator.AssertExpectations(t)
		st.AssertExpectations(t)
	})

	t.Run("succeeds with rejected frames above the minimum", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up", "down", "front", "left")
		for i, f := range frames {
			outcome := validOutcome(f.PoseLabel, float32(i)*0.1)
			if i == 2 || i == 5 {
				outcome = domain.RejectedFrame(f.PoseLabel, domain.ErrFaceTooSmall)
			}
			validator.On("Validate", ctx, f.Image, f.PoseLabel).Return(outcome).Once()
		}
		st.On("Save", ctx, mock.Anything).Return(nil).Once()

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		result, err := svc.Enroll(ctx, frames)

		require.NoError(t, err)
		assert.Equal(t, 5, result.EnrolledCount)
		require.Len(t, result.FrameErrors, 2)
		assert.Contains(t, result.FrameErrors[0], "Frame 3 (right)")
		assert.Contains(t, result.FrameErrors[1], "Frame 6 (front)")
	})

	t.Run("frame with a transport decode failure skips the gates", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up", "down")
		for i, f := range frames {
			validator.On("Validate", ctx, f.Image, f.PoseLabel).
				Return(validOutcome(f.PoseLabel, float32(i)*0.1)).Once()
		}
		frames = append(frames, domain.RawFrame{
			PoseLabel: "left",
			Err:       errors.New("decode base64 image: illegal base64 data at input byte 3"),
		})
		st.On("Save", ctx, mock.Anything).Return(nil).Once()

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		result, err := svc.Enroll(ctx, frames)

		require.NoError(t, err)
		assert.Equal(t, 5, result.EnrolledCount)
		require.Len(t, result.FrameErrors, 1)
		assert.Contains(t, result.FrameErrors[0], "Frame 6 (left): decode base64 image")

		// The corrupt frame never reaches the validator.
		validator.AssertNumberOfCalls(t, "Validate", 5)
		st.AssertExpectations(t)
	})

	t.Run("decode failures still count toward the batch minimum", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up")
		for i, f := range frames {
			validator.On("Validate", ctx, f.Image, f.PoseLabel).
				Return(validOutcome(f.PoseLabel, float32(i)*0.1)).Once()
		}
		frames = append(frames, domain.RawFrame{PoseLabel: "down", Err: errors.New("decode base64 image: bad padding")})

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		_, err := svc.Enroll(ctx, frames)

		// 5 frames submitted clears the count check; 4 survivors fail the
		// aggregation with the decode failure listed.
		var insufficient *domain.InsufficientEmbeddingsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 4, insufficient.Valid)
		assert.Equal(t, 5, insufficient.Total)
		require.Len(t, insufficient.FrameErrors, 1)
		assert.Contains(t, insufficient.FrameErrors[0], "Frame 5 (down)")

		st.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("rejects a batch below the minimum frame count", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		_, err := svc.Enroll(ctx, rawFrames("front", "left", "right"))

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode)
		assert.Contains(t, err.Error(), "insufficient frames: 3 provided, minimum 5 required")

		validator.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
		st.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("fails when too few frames survive the gates", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up", "down", "front", "left")
		for i, f := range frames {
			outcome := validOutcome(f.PoseLabel, float32(i)*0.1)
			if i >= 4 {
				outcome = domain.RejectedFrame(f.PoseLabel, domain.ErrDetectionFailed)
			}
			validator.On("Validate", ctx, f.Image, f.PoseLabel).Return(outcome).Once()
		}

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		_, err := svc.Enroll(ctx, frames)

		var insufficient *domain.InsufficientEmbeddingsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, 4, insufficient.Valid)
		assert.Equal(t, 7, insufficient.Total)

		st.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("maps store failure to a write error", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		frames := rawFrames("front", "left", "right", "up", "down")
		for i, f := range frames {
			validator.On("Validate", ctx, f.Image, f.PoseLabel).
				Return(validOutcome(f.PoseLabel, float32(i)*0.1)).Once()
		}
		st.On("Save", ctx, mock.Anything).Return(errors.New("disk full")).Once()

		svc := NewEnrollmentService(validator, st, testLogger(), 5)
		_, err := svc.Enroll(ctx, frames)

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STORE_WRITE_ERROR", appErr.Code)
		assert.ErrorContains(t, err, "disk full")
	})
}

func TestEnrollmentService_Status(t *testing.T) {
	ctx := context.Background()

	t.Run("not enrolled", func(t *testing.T) {
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(false, nil).Once()

		svc := NewEnrollmentService(new(MockValidator), st, testLogger(), 5)
		status, err := svc.Status(ctx)

		require.NoError(t, err)
		assert.False(t, status.Enrolled)
		assert.Zero(t, status.EmbeddingsCount)
		assert.Nil(t, status.Metadata)

		st.AssertNotCalled(t, "LoadEmbeddings", mock.Anything)
	})

	t.Run("enrolled with metadata", func(t *testing.T) {
		st := new(MockStore)
		meta := &domain.EnrollmentMetadata{
			Version:   domain.EnrollmentVersion,
			Timestamp: time.Now().UTC(),
			Count:     5,
		}
		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(make([][]float32, 5), nil).Once()
		st.On("LoadMetadata", ctx).Return(meta, nil).Once()

		svc := NewEnrollmentService(new(MockValidator), st, testLogger(), 5)
		status, err := svc.Status(ctx)

		require.NoError(t, err)
		assert.True(t, status.Enrolled)
		assert.Equal(t, 5, status.EmbeddingsCount)
		assert.Equal(t, meta, status.Metadata)
	})

	t.Run("enrolled but artifacts unreadable reports zero count", func(t *testing.T) {
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(nil, nil).Once()
		st.On("LoadMetadata", ctx).Return(nil, nil).Once()

		svc := NewEnrollmentService(new(MockValidator), st, testLogger(), 5)
		status, err := svc.Status(ctx)

		require.NoError(t, err)
		assert.True(t, status.Enrolled)
		assert.Zero(t, status.EmbeddingsCount)
	})
}

func TestEnrollmentService_Clear(t *testing.T) {
	ctx := context.Background()

	t.Run("clears an existing enrollment", func(t *testing.T) {
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("Clear", ctx).Return(nil).Once()

		svc := NewEnrollmentService(new(MockValidator), st, testLogger(), 5)
		require.NoError(t, svc.Clear(ctx))
		st.AssertExpectations(t)
	})

	t.Run("deleting an empty store is NOT_ENROLLED", func(t *testing.T) {
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(false, nil).Once()

		svc := NewEnrollmentService(new(MockValidator), st, testLogger(), 5)
		err := svc.Clear(ctx)

		assert.ErrorIs(t, err, domain.ErrNothingToDelete)
		st.AssertNotCalled(t, "Clear", mock.Anything)
	})
}
