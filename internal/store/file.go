package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
	"github.com/saturnino-fabrica-de-software/rosto/internal/npz"
)

const (
	embeddingsFile = "embeddings.npz"
	metadataFile   = "metadata.json"
)

// FileStore keeps the enrollment in one directory: embeddings.npz (numpy
// container) plus metadata.json, the layout the previous tooling wrote.
// A single-writer/multi-reader lock serializes Save and Clear against the
// read paths, so a verify never observes a half-written enrollment.
type FileStore struct {
	dir    string
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

func (s *FileStore) embeddingsPath() string { return filepath.Join(s.dir, embeddingsFile) }
func (s *FileStore) metadataPath() string   { return filepath.Join(s.dir, metadataFile) }

// Save writes both artifacts to temp files and renames them into place.
// Both carry the same version and timestamp stamp, so a crash between the
// two renames is detectable and IsEnrolled stays false until metadata (the
// second rename) lands.
func (s *FileStore) Save(ctx context.Context, record *domain.EnrollmentRecord) error {
	embeddings, err := encodeEmbeddings(record)
	if err != nil {
		return err
	}

	metadata, err := json.MarshalIndent(domain.EnrollmentMetadata{
		Version:   record.Version,
		Timestamp: record.CreatedAt,
		Count:     len(record.Embeddings),
		Frames:    record.Frames,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := replaceFile(s.embeddingsPath(), embeddings); err != nil {
		return fmt.Errorf("write embeddings artifact: %w", err)
	}
	if err := replaceFile(s.metadataPath(), metadata); err != nil {
		return fmt.Errorf("write metadata artifact: %w", err)
	}

	return nil
}

func encodeEmbeddings(record *domain.EnrollmentRecord) ([]byte, error) {
	var buf bytes.Buffer
	err := npz.Write(&buf,
		map[string][][]float32{"embeddings": record.Embeddings},
		map[string]string{
			"version":   record.Version,
			"timestamp": record.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000"),
		},
	)
	if err != nil {
		return nil, fmt.Errorf("encode embeddings artifact: %w", err)
	}
	return buf.Bytes(), nil
}

// LoadEmbeddings returns the stored matrix, or nil when the artifact is
// missing or unreadable. Corruption is logged, never raised.
func (s *FileStore) LoadEmbeddings(ctx context.Context) ([][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.embeddingsPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("embeddings artifact unreadable", slog.Any("error", err))
		}
		return nil, nil
	}

	archive, err := npz.Read(data)
	if err != nil {
		s.logger.Warn("embeddings artifact corrupt", slog.Any("error", err))
		return nil, nil
	}

	matrix, ok := archive.Matrix("embeddings")
	if !ok {
		s.logger.Warn("embeddings artifact missing 'embeddings' key")
		return nil, nil
	}
	return matrix, nil
}

// LoadMetadata returns the stored metadata document, or nil when the
// artifact is missing or unreadable.
func (s *FileStore) LoadMetadata(ctx context.Context) (*domain.EnrollmentMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.metadataPath())
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("metadata artifact unreadable", slog.Any("error", err))
		}
		return nil, nil
	}

	var metadata domain.EnrollmentMetadata
	if err := json.Unmarshal(data, &metadata); err != nil {
		s.logger.Warn("metadata artifact corrupt", slog.Any("error", err))
		return nil, nil
	}
	return &metadata, nil
}

// IsEnrolled requires both artifacts to exist.
func (s *FileStore) IsEnrolled(ctx context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fileExists(s.embeddingsPath()) && fileExists(s.metadataPath()), nil
}

// Clear removes both artifacts. Idempotent.
func (s *FileStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.embeddingsPath(), s.metadataPath()} {
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func replaceFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var _ Store = (*FileStore)(nil)
