package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/rosto/internal/api"
	"github.com/saturnino-fabrica-de-software/rosto/internal/config"
	"github.com/saturnino-fabrica-de-software/rosto/internal/database"
	"github.com/saturnino-fabrica-de-software/rosto/internal/face"
	"github.com/saturnino-fabrica-de-software/rosto/internal/frame"
	"github.com/saturnino-fabrica-de-software/rosto/internal/provider"
	"github.com/saturnino-fabrica-de-software/rosto/internal/service"
	"github.com/saturnino-fabrica-de-software/rosto/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting Rosto API",
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("extractor", cfg.Extractor),
		slog.String("storage", cfg.StorageBackend),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor, err := face.NewExtractor(cfg)
	if err != nil {
		return fmt.Errorf("create extractor: %w", err)
	}

	var pool store.PgxPool
	if cfg.StorageBackend == "postgres" {
		pgPool, err := database.NewPool(ctx, database.DefaultPoolConfig(cfg.DatabaseURL))
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer pgPool.Close()
		pool = pgPool
	}

	st, err := store.New(cfg, pool, logger)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}

	validator := frame.NewValidator(extractor, frame.Options{
		MinEdge:      cfg.MinFrameEdge,
		MinFaceRatio: cfg.MinFaceRatio,
	})

	enrollment := service.NewEnrollmentService(validator, st, logger, cfg.MinValidFrames)
	verification := service.NewVerificationService(validator, st, logger, cfg.MatchThreshold)

	// Warm the extractor off the startup path. /ready needs a successful
	// warm-up round trip plus a reachable store.
	var warm atomic.Bool
	go warmup(ctx, extractor, &warm, logger)

	ready := func() bool {
		if !warm.Load() {
			return false
		}
		probeCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := st.IsEnrolled(probeCtx)
		return err == nil
	}

	router := api.NewRouter(logger, &api.Dependencies{
		Enrollment:   enrollment,
		Verification: verification,
		Ready:        ready,
	})
	router.Setup()

	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	logger.Info("server stopped")

	return nil
}

// warmup retries until the extractor answers or the process is shutting
// down. Enroll and verify keep working meanwhile; only /ready is gated.
func warmup(ctx context.Context, extractor provider.Extractor, warm *atomic.Bool, logger *slog.Logger) {
	const retryDelay = 10 * time.Second

	for {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		err := extractor.Warmup(warmCtx)
		cancel()

		if err == nil {
			warm.Store(true)
			logger.Info("extractor warm")
			return
		}

		logger.Warn("extractor warm-up failed", slog.Any("error", err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}
