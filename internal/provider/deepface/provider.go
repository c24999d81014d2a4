package deepface

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
)

// Provider implements provider.Extractor using the DeepFace API
type Provider struct {
	client *Client
}

// NewProvider creates a new DeepFace provider
func NewProvider(config Config) *Provider {
	return &Provider{
		client: NewClient(config),
	}
}

// Represent extracts one detection per face found in the image. An empty
// result list and an enforce_detection failure from the backend are both
// normalized to provider.ErrNoFaceDetected.
func (p *Provider) Represent(ctx context.Context, image []byte) ([]provider.Detection, error) {
	imageBase64 := base64.StdEncoding.EncodeToString(image)

	resp, err := p.client.Represent(ctx, imageBase64)
	if err != nil {
		if isNoFaceError(err) {
			return nil, provider.ErrNoFaceDetected
		}
		return nil, fmt.Errorf("represent: %w", err)
	}

	if len(resp.Results) == 0 {
		return nil, provider.ErrNoFaceDetected
	}

	detections := make([]provider.Detection, 0, len(resp.Results))
	for _, result := range resp.Results {
		detections = append(detections, provider.Detection{
			Embedding: result.Embedding,
			BoundingBox: provider.BoundingBox{
				X:      result.FacialArea.X,
				Y:      result.FacialArea.Y,
				Width:  result.FacialArea.W,
				Height: result.FacialArea.H,
			},
		})
	}

	return detections, nil
}

// Warmup forces the backend to load detector and model weights by embedding
// a small synthetic frame. The backend rejecting it as faceless still loads
// the models, so that outcome counts as a successful warm-up.
func (p *Provider) Warmup(ctx context.Context) error {
	frame, err := warmupFrame()
	if err != nil {
		return fmt.Errorf("build warmup frame: %w", err)
	}

	if _, err := p.Represent(ctx, frame); err != nil {
		if errors.Is(err, provider.ErrNoFaceDetected) {
			return nil
		}
		return fmt.Errorf("warmup: %w", err)
	}

	return nil
}

// isNoFaceError matches the enforce_detection rejection raised by the
// backend when no face is present.
func isNoFaceError(err error) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !statusErr.IsClientError() {
		return false
	}
	body := strings.ToLower(statusErr.Body)
	return strings.Contains(body, "face could not be detected") ||
		strings.Contains(body, "no face")
}

// Ensure Provider implements provider.Extractor
var _ provider.Extractor = (*Provider)(nil)
