// Package handler exposes the enrollment and verification flows over HTTP.
package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/service"
)

// EnrollmentServiceInterface is what the handler needs from the enrollment flow.
type EnrollmentServiceInterface interface {
	Enroll(ctx context.Context, frames []domain.RawFrame) (*service.EnrollmentResult, error)
	Status(ctx context.Context) (*service.StatusResult, error)
	Clear(ctx context.Context) error
}

// VerificationServiceInterface is what the handler needs from the verification flow.
type VerificationServiceInterface interface {
	Verify(ctx context.Context, imageBytes []byte) (*domain.VerificationResult, error)
	Threshold() float64
}

type FaceHandler struct {
	enrollment   EnrollmentServiceInterface
	verification VerificationServiceInterface
	logger       *slog.Logger
}

func NewFaceHandler(enrollment EnrollmentServiceInterface, verification VerificationServiceInterface, logger *slog.Logger) *FaceHandler {
	return &FaceHandler{
		enrollment:   enrollment,
		verification: verification,
		logger:       logger,
	}
}

// FrameRequest is one captured frame: a pose label plus a base64 image, with
// or without a data-URI prefix.
type FrameRequest struct {
	Pose  string `json:"pose"`
	Image string `json:"image"`
}

// EnrollRequest is the body of POST /enroll.
type EnrollRequest struct {
	Frames []FrameRequest `json:"frames"`
}

// VerifyRequest is the body of POST /verify.
type VerifyRequest struct {
	Image string `json:"image"`
}

// FrameMetadataResponse mirrors the stored per-frame metadata.
type FrameMetadataResponse struct {
	Pose       string    `json:"pose"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	FaceRatio  float64   `json:"face_ratio"`
}

// EnrollResponse is returned on a successful enrollment.
type EnrollResponse struct {
	Message         string                  `json:"message"`
	EmbeddingsCount int                     `json:"embeddings_count"`
	Frames          []FrameMetadataResponse `json:"frames"`
	Errors          []string                `json:"errors,omitempty"`
}

// VerifyResponse is returned for every gated verification attempt.
type VerifyResponse struct {
	Verified   bool    `json:"verified"`
	Similarity float64 `json:"similarity"`
	Threshold  float64 `json:"threshold"`
	Message    string  `json:"message"`
	LatencyMs  int64   `json:"latency_ms"`
}

// StatusMetadataResponse is the metadata summary inside StatusResponse.
type StatusMetadataResponse struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Count     int       `json:"count"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Enrolled        bool                    `json:"enrolled"`
	EmbeddingsCount int                     `json:"embeddings_count,omitempty"`
	Metadata        *StatusMetadataResponse `json:"metadata,omitempty"`
}

// decodeImage strips an optional data-URI prefix and decodes the base64
// payload. Clients send either raw base64 or "data:image/jpeg;base64,...".
func decodeImage(encoded string) ([]byte, error) {
	if idx := strings.IndexByte(encoded, ','); idx >= 0 {
		encoded = encoded[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 image: %w", err)
	}
	return data, nil
}

// Enroll POST /enroll - enroll a face from multiple gated frames
func (h *FaceHandler) Enroll(c *fiber.Ctx) error {
	var req EnrollRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if len(req.Frames) == 0 {
		return domain.ErrValidationFailed.WithError(errors.New("frames is required"))
	}

	// A frame that fails base64 decoding is rejected like any other bad
	// frame, never aborting the batch.
	frames := make([]domain.RawFrame, 0, len(req.Frames))
	for _, f := range req.Frames {
		image, err := decodeImage(f.Image)
		if err != nil {
			frames = append(frames, domain.RawFrame{PoseLabel: f.Pose, Err: err})
			continue
		}
		frames = append(frames, domain.RawFrame{PoseLabel: f.Pose, Image: image})
	}

	result, err := h.enrollment.Enroll(c.Context(), frames)
	if err != nil {
		return err
	}

	return c.JSON(EnrollResponse{
		Message:         fmt.Sprintf("Successfully enrolled %d face embeddings", result.EnrolledCount),
		EmbeddingsCount: result.EnrolledCount,
		Frames:          toFrameResponses(result.Frames),
		Errors:          result.FrameErrors,
	})
}

// Verify POST /verify - verify an image against the enrolled face
func (h *FaceHandler) Verify(c *fiber.Ctx) error {
	var req VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if req.Image == "" {
		return domain.ErrValidationFailed.WithError(errors.New("image is required"))
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		return domain.ErrValidationFailed.WithError(err)
	}

	result, err := h.verification.Verify(c.Context(), image)
	if err != nil {
		return err
	}

	return c.JSON(VerifyResponse{
		Verified:   result.IsMatch,
		Similarity: result.BestSimilarity,
		Threshold:  h.verification.Threshold(),
		Message:    result.Message,
		LatencyMs:  result.LatencyMs,
	})
}

// Status GET /status - enrollment status snapshot
func (h *FaceHandler) Status(c *fiber.Ctx) error {
	status, err := h.enrollment.Status(c.Context())
	if err != nil {
		return err
	}

	resp := StatusResponse{
		Enrolled:        status.Enrolled,
		EmbeddingsCount: status.EmbeddingsCount,
	}
	if status.Metadata != nil {
		resp.Metadata = &StatusMetadataResponse{
			Version:   status.Metadata.Version,
			Timestamp: status.Metadata.Timestamp,
			Count:     status.Metadata.Count,
		}
	}
	return c.JSON(resp)
}

// Delete DELETE /enrollment - clear the stored enrollment
func (h *FaceHandler) Delete(c *fiber.Ctx) error {
	if err := h.enrollment.Clear(c.Context()); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func toFrameResponses(frames []domain.FrameMetadata) []FrameMetadataResponse {
	out := make([]FrameMetadataResponse, len(frames))
	for i, f := range frames {
		out[i] = FrameMetadataResponse{
			Pose:       f.Pose,
			Timestamp:  f.Timestamp,
			Confidence: f.Confidence,
			FaceRatio:  f.FaceRatio,
		}
	}
	return out
}
