package face

import (
	"fmt"

	"github.com/saturnino-fabrica-de-software/rosto/internal/config"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider/deepface"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider/mock"
)

// ExtractorType defines supported embedding extractor types
type ExtractorType string

const (
	// ExtractorTypeDeepFace is the DeepFace HTTP extractor
	ExtractorTypeDeepFace ExtractorType = "deepface"
	// ExtractorTypeMock is the deterministic in-process extractor (dev/test)
	ExtractorTypeMock ExtractorType = "mock"
)

// NewExtractor creates an Extractor instance based on configuration. The
// extractor is a heavyweight shared handle: construct it once at startup and
// inject it into the services.
//
// Environment variables:
//   - EXTRACTOR: "deepface" or "mock" (default: "deepface")
//   - DEEPFACE_URL: DeepFace API URL (default: "http://localhost:5005")
//   - DEEPFACE_MODEL: embedding model (default: "Facenet512")
//   - DEEPFACE_DETECTOR: detector backend (default: "retinaface")
func NewExtractor(cfg *config.Config) (provider.Extractor, error) {
	switch ExtractorType(cfg.Extractor) {
	case ExtractorTypeMock:
		return mock.New(), nil

	case ExtractorTypeDeepFace, "":
		return createDeepFaceExtractor(cfg), nil

	default:
		return nil, fmt.Errorf("unknown extractor type: %s (supported: %s, %s)",
			cfg.Extractor, ExtractorTypeDeepFace, ExtractorTypeMock)
	}
}

func createDeepFaceExtractor(cfg *config.Config) provider.Extractor {
	deepfaceConfig := deepface.DefaultConfig()
	if cfg.DeepFaceURL != "" {
		deepfaceConfig.BaseURL = cfg.DeepFaceURL
	}
	if cfg.DeepFaceModel != "" {
		deepfaceConfig.Model = cfg.DeepFaceModel
	}
	if cfg.DeepFaceDetector != "" {
		deepfaceConfig.Detector = cfg.DeepFaceDetector
	}

	return deepface.NewProvider(deepfaceConfig)
}
