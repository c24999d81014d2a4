package provider

import (
	"context"
	"errors"
)

// ErrNoFaceDetected is the normalized "no face found" signal. Extractor
// implementations return it both when the backend reports an empty result
// and when it fails because detection was enforced.
var ErrNoFaceDetected = errors.New("no face detected in image")

// Extractor define a interface para extratores de embedding facial
type Extractor interface {
	// Represent detects the faces in the image and returns one detection per
	// face, in the order reported by the backend. Single-face enforcement is
	// NOT the extractor's job: ambiguous multi-face frames come back as
	// multiple detections and the caller decides.
	Represent(ctx context.Context, image []byte) ([]Detection, error)

	// Warmup triggers the backend's lazy model loading. Best-effort: a
	// warm-up failure only means the first real call bears the loading cost.
	Warmup(ctx context.Context) error
}

// Detection is one detected face: its embedding vector and bounding box.
type Detection struct {
	Embedding   []float32   `json:"embedding"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// BoundingBox represents the face area in the image, in pixels
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"w"`
	Height int `json:"h"`
}

// Area returns the bounding box area in pixels².
func (b BoundingBox) Area() int {
	return b.Width * b.Height
}
