package domain

import (
	"time"

	"github.com/google/uuid"
)

// EnrollmentVersion stamps persisted artifacts so a partial write between
// embeddings and metadata is detectable.
const EnrollmentVersion = "1.0"

// RawFrame é um frame capturado pelo cliente, com o rótulo da pose
type RawFrame struct {
	PoseLabel string
	Image     []byte
	// Err carries a transport-level decode failure. The frame still counts
	// toward the batch and is reported like any other rejected frame.
	Err error
}

// FrameOutcome is the result of running one frame through the quality gates.
// Exactly one of Embedding or Err is set; outcomes are built once and never
// mutated afterwards.
type FrameOutcome struct {
	Embedding  []float32
	Confidence float64
	FaceArea   int
	FaceRatio  float64
	PoseLabel  string
	Timestamp  time.Time
	Err        error
}

// Valid reports whether the frame passed every gate and carries an embedding.
func (o FrameOutcome) Valid() bool {
	return o.Err == nil && o.Embedding != nil
}

// ValidFrame builds the accepted outcome for a frame.
func ValidFrame(embedding []float32, faceArea int, faceRatio float64, pose string) FrameOutcome {
	return FrameOutcome{
		Embedding: embedding,
		// face_ratio doubles as the detection-quality proxy; it is not a
		// calibrated probability.
		Confidence: faceRatio,
		FaceArea:   faceArea,
		FaceRatio:  faceRatio,
		PoseLabel:  pose,
		Timestamp:  time.Now().UTC(),
	}
}

// RejectedFrame builds the error outcome for a frame.
func RejectedFrame(pose string, err error) FrameOutcome {
	return FrameOutcome{
		PoseLabel: pose,
		Timestamp: time.Now().UTC(),
		Err:       err,
	}
}

// FrameMetadata descreve um embedding aceito, na mesma ordem do vetor
type FrameMetadata struct {
	Pose       string    `json:"pose"`
	Timestamp  time.Time `json:"timestamp"`
	Confidence float64   `json:"confidence"`
	FaceRatio  float64   `json:"face_ratio"`
}

// EnrollmentRecord is the single persisted enrollment: accepted embeddings in
// capture order plus 1:1 positional metadata. len(Embeddings) == len(Frames).
type EnrollmentRecord struct {
	ID         uuid.UUID
	Embeddings [][]float32
	Frames     []FrameMetadata
	Version    string
	CreatedAt  time.Time
}

// EnrollmentMetadata is the metadata artifact as persisted by the store.
type EnrollmentMetadata struct {
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Count     int             `json:"count"`
	Frames    []FrameMetadata `json:"frames"`
}

// VerificationResult is returned per verification call and never persisted.
type VerificationResult struct {
	IsMatch        bool
	BestSimilarity float64
	Message        string
	LatencyMs      int64
}
