package frame

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
)

// stubExtractor returns canned detections and records whether it was called.
type stubExtractor struct {
	detections []provider.Detection
	err        error
	called     bool
}

func (s *stubExtractor) Represent(ctx context.Context, image []byte) ([]provider.Detection, error) {
	s.called = true
	return s.detections, s.err
}

func (s *stubExtractor) Warmup(ctx context.Context) error { return nil }

func pngFrame(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func detection(w, h int, dim int) provider.Detection {
	emb := make([]float32, dim)
	emb[0] = 1
	return provider.Detection{
		Embedding:   emb,
		BoundingBox: provider.BoundingBox{X: 10, Y: 10, Width: w, Height: h},
	}
}

func TestValidate_RejectsUndecodableBytes(t *testing.T) {
	extractor := &stubExtractor{}
	v := NewValidator(extractor, DefaultOptions())

	outcome := v.Validate(context.Background(), []byte("not an image"), "front")

	require.False(t, outcome.Valid())
	var appErr *domain.AppError
	require.ErrorAs(t, outcome.Err, &appErr)
	assert.Equal(t, "DECODE_ERROR", appErr.Code)
	assert.False(t, extractor.called, "extractor must not run on undecodable bytes")
	assert.Equal(t, "front", outcome.PoseLabel)
	assert.False(t, outcome.Timestamp.IsZero())
}

func TestValidate_RejectsSmallFrameBeforeExtractor(t *testing.T) {
	extractor := &stubExtractor{detections: []provider.Detection{detection(100, 100, 512)}}
	v := NewValidator(extractor, DefaultOptions())

	outcome := v.Validate(context.Background(), pngFrame(t, 199, 400), "front")

	require.False(t, outcome.Valid())
	var appErr *domain.AppError
	require.ErrorAs(t, outcome.Err, &appErr)
	assert.Equal(t, "IMAGE_TOO_SMALL", appErr.Code)
	assert.False(t, extractor.called, "extractor must not be invoked for undersized frames")
}

func TestValidate_NormalizesExtractorFailures(t *testing.T) {
	tests := []struct {
		name string
		stub *stubExtractor
	}{
		{"no face sentinel", &stubExtractor{err: provider.ErrNoFaceDetected}},
		{"backend failure", &stubExtractor{err: errors.New("deepface service unavailable")}},
		{"empty detections", &stubExtractor{detections: []provider.Detection{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.stub, DefaultOptions())

			outcome := v.Validate(context.Background(), pngFrame(t, 300, 300), "left")

			require.False(t, outcome.Valid())
			var appErr *domain.AppError
			require.ErrorAs(t, outcome.Err, &appErr)
			assert.Equal(t, "DETECTION_FAILED", appErr.Code)
		})
	}
}

func TestValidate_RejectsMultipleFaces(t *testing.T) {
	extractor := &stubExtractor{detections: []provider.Detection{
		detection(120, 120, 512),
		detection(110, 110, 512),
	}}
	v := NewValidator(extractor, DefaultOptions())

	outcome := v.Validate(context.Background(), pngFrame(t, 300, 300), "front")

	require.False(t, outcome.Valid())
	var appErr *domain.AppError
	require.ErrorAs(t, outcome.Err, &appErr)
	assert.Equal(t, "MULTIPLE_FACES", appErr.Code)
}

func TestValidate_RejectsFaceBelowRatioFloor(t *testing.T) {
	// 60x60 face in a 300x300 frame: ratio 0.04 < 0.05
	extractor := &stubExtractor{detections: []provider.Detection{detection(60, 60, 512)}}
	v := NewValidator(extractor, DefaultOptions())

	outcome := v.Validate(context.Background(), pngFrame(t, 300, 300), "front")

	require.False(t, outcome.Valid())
	var appErr *domain.AppError
	require.ErrorAs(t, outcome.Err, &appErr)
	assert.Equal(t, "FACE_TOO_SMALL", appErr.Code)
}

func TestValidate_AcceptsSingleLargeFace(t *testing.T) {
	// 150x150 face in a 300x300 frame: ratio 0.25
	extractor := &stubExtractor{detections: []provider.Detection{detection(150, 150, 512)}}
	v := NewValidator(extractor, DefaultOptions())

	outcome := v.Validate(context.Background(), pngFrame(t, 300, 300), "right")

	require.True(t, outcome.Valid())
	require.NoError(t, outcome.Err)
	assert.Len(t, outcome.Embedding, 512)
	assert.Equal(t, 150*150, outcome.FaceArea)
	assert.InDelta(t, 0.25, outcome.FaceRatio, 1e-9)
	// confidence is the face-ratio proxy, not a probability
	assert.Equal(t, outcome.FaceRatio, outcome.Confidence)
	assert.Equal(t, "right", outcome.PoseLabel)
	assert.False(t, outcome.Timestamp.IsZero())
}

func TestValidate_ThresholdsAreConfigurable(t *testing.T) {
	extractor := &stubExtractor{detections: []provider.Detection{detection(60, 60, 512)}}
	v := NewValidator(extractor, Options{MinEdge: 100, MinFaceRatio: 0.01})

	outcome := v.Validate(context.Background(), pngFrame(t, 150, 150), "front")

	require.True(t, outcome.Valid())
	assert.InDelta(t, float64(60*60)/float64(150*150), outcome.FaceRatio, 1e-9)
}
