// Package api wires middleware, handlers and docs into the fiber app.
package api

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/saturnino-fabrica-de-software/rosto/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/rosto/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/rosto/internal/api/middleware"
)

// Dependencies carries the constructed services into the router.
type Dependencies struct {
	Enrollment   handler.EnrollmentServiceInterface
	Verification handler.VerificationServiceInterface
	Ready        handler.ReadyFunc
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Rosto API",
		BodyLimit:    32 * 1024 * 1024, // enrollment batches carry several base64 frames
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	var ready handler.ReadyFunc
	if r.deps != nil {
		ready = r.deps.Ready
	}
	healthHandler := handler.NewHealthHandler(ready)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	// Rate limiting shields the extractor behind enroll and verify.
	r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	r.app.Use(r.rateLimiter.Handler())

	faceHandler := handler.NewFaceHandler(r.deps.Enrollment, r.deps.Verification, r.logger)

	r.app.Post("/enroll", faceHandler.Enroll)
	r.app.Post("/verify", faceHandler.Verify)
	r.app.Get("/status", faceHandler.Status)
	r.app.Delete("/enrollment", faceHandler.Delete)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}
	return r.app.Shutdown()
}
