package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// probeAt builds a unit vector whose cosine against [1,0,0] is sim.
func probeAt(sim float64) []float32 {
	return []float32{float32(sim), float32(math.Sqrt(1 - sim*sim)), 0}
}

func TestVerificationService_Verify(t *testing.T) {
	ctx := context.Background()
	probe := []byte("probe-image")
	stored := [][]float32{{1, 0, 0}, {0, 1, 0}}

	t.Run("matches above the threshold", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(stored, nil).Once()
		validator.On("Validate", ctx, probe, "verification").
			Return(domain.ValidFrame(probeAt(0.62), 10000, 0.25, "verification")).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		result, err := svc.Verify(ctx, probe)

		require.NoError(t, err)
		assert.True(t, result.IsMatch)
		assert.InDelta(t, 0.62, result.BestSimilarity, 1e-4)
		assert.Contains(t, result.Message, "Face verified with similarity: 0.62")
		assert.GreaterOrEqual(t, result.LatencyMs, int64(0))
	})

	t.Run("rejects below the threshold", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(stored, nil).Once()
		validator.On("Validate", ctx, probe, "verification").
			Return(domain.ValidFrame(probeAt(0.58), 10000, 0.25, "verification")).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		result, err := svc.Verify(ctx, probe)

		require.NoError(t, err)
		assert.False(t, result.IsMatch)
		assert.InDelta(t, 0.58, result.BestSimilarity, 1e-4)
		assert.Contains(t, result.Message, "Face not verified")
		assert.Contains(t, result.Message, "(threshold: 0.6)")
	})

	t.Run("best match wins across stored embeddings", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		// Second stored vector is the close one.
		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return([][]float32{{0, 0, 1}, {1, 0, 0}}, nil).Once()
		validator.On("Validate", ctx, probe, "verification").
			Return(domain.ValidFrame(probeAt(0.9), 10000, 0.25, "verification")).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		result, err := svc.Verify(ctx, probe)

		require.NoError(t, err)
		assert.True(t, result.IsMatch)
		assert.InDelta(t, 0.9, result.BestSimilarity, 1e-4)
	})

	t.Run("not enrolled", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(false, nil).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		_, err := svc.Verify(ctx, probe)

		assert.ErrorIs(t, err, domain.ErrNotEnrolled)
		validator.AssertNotCalled(t, "Validate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gated probe is a non-match, not an error", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(stored, nil).Once()
		validator.On("Validate", ctx, probe, "verification").
			Return(domain.RejectedFrame("verification", domain.ErrDetectionFailed)).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		result, err := svc.Verify(ctx, probe)

		require.NoError(t, err)
		assert.False(t, result.IsMatch)
		assert.Zero(t, result.BestSimilarity)
		assert.Contains(t, result.Message, "Face processing failed")
	})

	t.Run("enrolled but unreadable store fails the call", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)

		st.On("IsEnrolled", ctx).Return(true, nil).Once()
		st.On("LoadEmbeddings", ctx).Return(nil, nil).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		_, err := svc.Verify(ctx, probe)

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STORE_READ_ERROR", appErr.Code)
	})

	t.Run("store connectivity failure surfaces as read error", func(t *testing.T) {
		validator := new(MockValidator)
		st := new(MockStore)
		st.On("IsEnrolled", ctx).Return(false, errors.New("connection refused")).Once()

		svc := NewVerificationService(validator, st, testLogger(), 0.6)
		_, err := svc.Verify(ctx, probe)

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "STORE_READ_ERROR", appErr.Code)
	})
}

func TestNewVerificationService_DefaultThreshold(t *testing.T) {
	svc := NewVerificationService(new(MockValidator), new(MockStore), testLogger(), 0)
	assert.Equal(t, 0.6, svc.Threshold())
}
