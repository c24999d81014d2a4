package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"8000"`
	Environment string `envconfig:"ENV" default:"development"`

	// Extractor
	Extractor        string `envconfig:"EXTRACTOR" default:"deepface"`
	DeepFaceURL      string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	DeepFaceModel    string `envconfig:"DEEPFACE_MODEL" default:"Facenet512"`
	DeepFaceDetector string `envconfig:"DEEPFACE_DETECTOR" default:"retinaface"`

	// Storage
	StorageBackend string `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageDir     string `envconfig:"STORAGE_DIR" default:"./face_data"`
	DatabaseURL    string `envconfig:"DATABASE_URL"`

	// Pipeline thresholds. Calibrated for the Facenet512 embedding space;
	// swapping the model means recalibrating MatchThreshold.
	MatchThreshold float64 `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	MinFaceRatio   float64 `envconfig:"MIN_FACE_RATIO" default:"0.05"`
	MinFrameEdge   int     `envconfig:"MIN_FRAME_EDGE" default:"200"`
	MinValidFrames int     `envconfig:"MIN_VALID_FRAMES" default:"5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.StorageBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("load config: DATABASE_URL is required when STORAGE_BACKEND=postgres")
	}
	return &cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
