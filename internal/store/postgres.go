package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// PostgresStore persists the enrollment in Postgres with pgvector columns.
// A transaction replaces the previous enrollment so readers never observe a
// half-written state.
type PostgresStore struct {
	pool   PgxPool
	logger *slog.Logger
}

func NewPostgresStore(pool PgxPool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Save(ctx context.Context, record *domain.EnrollmentRecord) error {
	if len(record.Embeddings) != len(record.Frames) {
		return fmt.Errorf("save enrollment: %d embeddings for %d frames", len(record.Embeddings), len(record.Frames))
	}

	id := record.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save enrollment: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM enrollments`); err != nil {
		return fmt.Errorf("clear previous enrollment: %w", err)
	}

	insertEnrollment := `
		INSERT INTO enrollments (id, version, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertEnrollment, id, record.Version, record.CreatedAt); err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}

	insertFrame := `
		INSERT INTO enrollment_frames (enrollment_id, position, pose, captured_at, confidence, face_ratio, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for i, frame := range record.Frames {
		vec := pgvector.NewVector(record.Embeddings[i])
		if _, err := tx.Exec(ctx, insertFrame,
			id, i, frame.Pose, frame.Timestamp, frame.Confidence, frame.FaceRatio, vec,
		); err != nil {
			return fmt.Errorf("insert enrollment frame %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save enrollment: %w", err)
	}
	return nil
}

func (s *PostgresStore) LoadEmbeddings(ctx context.Context) ([][]float32, error) {
	query := `
		SELECT f.embedding
		FROM enrollment_frames f
		JOIN enrollments e ON e.id = f.enrollment_id
		ORDER BY f.position
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		s.logger.Warn("enrollment embeddings unreadable", slog.String("error", err.Error()))
		return nil, nil
	}
	defer rows.Close()

	var embeddings [][]float32
	for rows.Next() {
		var vec pgvector.Vector
		if err := rows.Scan(&vec); err != nil {
			s.logger.Warn("enrollment embedding row unreadable", slog.String("error", err.Error()))
			return nil, nil
		}
		embeddings = append(embeddings, vec.Slice())
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("enrollment embeddings unreadable", slog.String("error", err.Error()))
		return nil, nil
	}
	if len(embeddings) == 0 {
		return nil, nil
	}
	return embeddings, nil
}

func (s *PostgresStore) LoadMetadata(ctx context.Context) (*domain.EnrollmentMetadata, error) {
	var meta domain.EnrollmentMetadata

	headQuery := `SELECT version, created_at FROM enrollments LIMIT 1`
	err := s.pool.QueryRow(ctx, headQuery).Scan(&meta.Version, &meta.Timestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		s.logger.Warn("enrollment metadata unreadable", slog.String("error", err.Error()))
		return nil, nil
	}

	framesQuery := `
		SELECT pose, captured_at, confidence, face_ratio
		FROM enrollment_frames
		ORDER BY position
	`
	rows, err := s.pool.Query(ctx, framesQuery)
	if err != nil {
		s.logger.Warn("enrollment metadata unreadable", slog.String("error", err.Error()))
		return nil, nil
	}
	defer rows.Close()

	for rows.Next() {
		var frame domain.FrameMetadata
		if err := rows.Scan(&frame.Pose, &frame.Timestamp, &frame.Confidence, &frame.FaceRatio); err != nil {
			s.logger.Warn("enrollment metadata row unreadable", slog.String("error", err.Error()))
			return nil, nil
		}
		meta.Frames = append(meta.Frames, frame)
	}
	if err := rows.Err(); err != nil {
		s.logger.Warn("enrollment metadata unreadable", slog.String("error", err.Error()))
		return nil, nil
	}

	meta.Count = len(meta.Frames)
	return &meta, nil
}

func (s *PostgresStore) IsEnrolled(ctx context.Context) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM enrollments e
			JOIN enrollment_frames f ON f.enrollment_id = e.id
		)
	`

	var enrolled bool
	if err := s.pool.QueryRow(ctx, query).Scan(&enrolled); err != nil {
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return enrolled, nil
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	// Frames cascade on delete.
	if _, err := s.pool.Exec(ctx, `DELETE FROM enrollments`); err != nil {
		return fmt.Errorf("clear enrollment: %w", err)
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
