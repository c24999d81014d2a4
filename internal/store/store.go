// Package store persists the single active enrollment. The system holds at
// most one enrollment at a time; saving replaces it wholesale.
package store

import (
	"context"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// Store is the enrollment persistence contract.
//
// Load* return (nil, nil) when the artifact is missing or unreadable: a
// corrupt artifact never fails the caller's hot path. The caller combines
// IsEnrolled with a nil Load result to distinguish "not enrolled" from
// "enrolled but unreadable".
type Store interface {
	// Save atomically replaces the persisted enrollment. Embeddings and
	// metadata are written as a coupled unit: readers never observe one
	// without the other.
	Save(ctx context.Context, record *domain.EnrollmentRecord) error

	// LoadEmbeddings returns the stored [N, D] embedding matrix in capture
	// order, or nil when absent.
	LoadEmbeddings(ctx context.Context) ([][]float32, error)

	// LoadMetadata returns the stored metadata document, or nil when absent.
	LoadMetadata(ctx context.Context) (*domain.EnrollmentMetadata, error)

	// IsEnrolled reports whether both persisted artifacts exist.
	IsEnrolled(ctx context.Context) (bool, error)

	// Clear deletes the enrollment. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}
