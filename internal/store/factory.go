package store

import (
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/rosto/internal/config"
)

// Backend identifies the persistence implementation.
type Backend string

const (
	BackendFile     Backend = "file"
	BackendPostgres Backend = "postgres"
)

// New builds the Store selected by configuration. The pool is only consulted
// for the postgres backend.
func New(cfg *config.Config, pool PgxPool, logger *slog.Logger) (Store, error) {
	switch Backend(cfg.StorageBackend) {
	case BackendFile:
		return NewFileStore(cfg.StorageDir, logger)
	case BackendPostgres:
		if pool == nil {
			return nil, fmt.Errorf("postgres storage backend requires a connection pool")
		}
		return NewPostgresStore(pool, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}
