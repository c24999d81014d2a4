// Package frame applies the quality gates that decide whether a captured
// frame is acceptable for enrollment or verification.
package frame

import (
	"bytes"
	"context"
	"fmt"
	"image"

	// Formats the webcam capture path is known to produce.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
)

// Options are the gate thresholds. Zero values fall back to the defaults
// calibrated for Facenet512.
type Options struct {
	// MinEdge is the minimum width and height of the whole frame, in pixels.
	// Checked before the extractor is invoked.
	MinEdge int
	// MinFaceRatio is the minimum fraction of the frame area the detected
	// face must cover.
	MinFaceRatio float64
}

// DefaultOptions matches the thresholds the enrollment flow was tuned with.
func DefaultOptions() Options {
	return Options{
		MinEdge:      200,
		MinFaceRatio: 0.05,
	}
}

// Validator runs a single frame through the gates, producing a
// domain.FrameOutcome. Every failure is terminal for that frame; retrying
// with a new capture is the caller's call.
type Validator struct {
	extractor provider.Extractor
	opts      Options
}

// NewValidator creates a Validator over the shared extractor handle.
func NewValidator(extractor provider.Extractor, opts Options) *Validator {
	if opts.MinEdge == 0 {
		opts.MinEdge = DefaultOptions().MinEdge
	}
	if opts.MinFaceRatio == 0 {
		opts.MinFaceRatio = DefaultOptions().MinFaceRatio
	}
	return &Validator{extractor: extractor, opts: opts}
}

// Validate gates one frame. Exactly one of the returned outcome's Embedding
// or Err is set.
func (v *Validator) Validate(ctx context.Context, imageBytes []byte, poseLabel string) domain.FrameOutcome {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(imageBytes))
	if err != nil {
		return domain.RejectedFrame(poseLabel, domain.ErrImageDecode.WithError(err))
	}

	if cfg.Width < v.opts.MinEdge || cfg.Height < v.opts.MinEdge {
		return domain.RejectedFrame(poseLabel, domain.ErrImageTooSmall.WithError(
			fmt.Errorf("image %dx%d, minimum %dx%d required", cfg.Width, cfg.Height, v.opts.MinEdge, v.opts.MinEdge)))
	}

	detections, err := v.extractor.Represent(ctx, imageBytes)
	if err != nil {
		return domain.RejectedFrame(poseLabel, domain.ErrDetectionFailed.WithError(err))
	}

	if len(detections) == 0 {
		return domain.RejectedFrame(poseLabel, domain.ErrDetectionFailed.WithError(provider.ErrNoFaceDetected))
	}

	if len(detections) > 1 {
		return domain.RejectedFrame(poseLabel, domain.ErrMultipleFaces.WithError(
			fmt.Errorf("%d faces detected", len(detections))))
	}

	detection := detections[0]
	faceArea := detection.BoundingBox.Area()
	faceRatio := float64(faceArea) / float64(cfg.Width*cfg.Height)

	if faceRatio < v.opts.MinFaceRatio {
		return domain.RejectedFrame(poseLabel, domain.ErrFaceTooSmall.WithError(
			fmt.Errorf("face ratio %.4f, minimum %.2f required", faceRatio, v.opts.MinFaceRatio)))
	}

	return domain.ValidFrame(detection.Embedding, faceArea, faceRatio, poseLabel)
}
