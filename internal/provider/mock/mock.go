package mock

import (
	"bytes"
	"context"
	"crypto/sha256"
	"image"
	"math"

	_ "image/jpeg"
	_ "image/png"

	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
)

const embeddingDimension = 512

// Provider implementa provider.Extractor para testes e desenvolvimento.
// O embedding é derivado do hash da imagem: a mesma imagem produz sempre o
// mesmo vetor unitário.
type Provider struct{}

// New cria uma nova instância do mock
func New() *Provider {
	return &Provider{}
}

// Represent returns a single centered detection covering most of the frame.
// The bounding box tracks the real image dimensions when the bytes decode,
// so the validator's face-ratio gate behaves realistically.
func (p *Provider) Represent(ctx context.Context, img []byte) ([]provider.Detection, error) {
	if len(img) == 0 {
		return nil, provider.ErrNoFaceDetected
	}

	width, height := 640, 480
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(img)); err == nil {
		width, height = cfg.Width, cfg.Height
	}

	return []provider.Detection{
		{
			Embedding: generateEmbedding(img),
			BoundingBox: provider.BoundingBox{
				X:      width / 10,
				Y:      height / 10,
				Width:  width * 8 / 10,
				Height: height * 8 / 10,
			},
		},
	}, nil
}

// Warmup is a no-op: the mock has no model to load.
func (p *Provider) Warmup(ctx context.Context) error {
	return nil
}

// generateEmbedding gera embedding unitário determinístico baseado no hash
// da imagem
func generateEmbedding(img []byte) []float32 {
	hash := sha256.Sum256(img)
	embedding := make([]float32, embeddingDimension)
	hashLen := len(hash)

	for i := 0; i < embeddingDimension; i++ {
		idx := (i*31 + i/hashLen) % hashLen
		embedding[i] = (float32(hash[idx])/255.0)*2 - 1
	}

	var norm float64
	for _, v := range embedding {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)

	for i := range embedding {
		embedding[i] = float32(float64(embedding[i]) / norm)
	}

	return embedding
}

var _ provider.Extractor = (*Provider)(nil)
