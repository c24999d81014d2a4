package middleware

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/rosto/internal/domain"
)

// ErrorHandler maps domain errors to the JSON error envelope. Every handler
// returns errors instead of writing responses; this is the single place that
// decides status codes.
func ErrorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var insufficient *domain.InsufficientEmbeddingsError
		if errors.As(err, &insufficient) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "INSUFFICIENT_EMBEDDINGS",
					"message": insufficient.Error(),
					"details": fiber.Map{
						"valid":        insufficient.Valid,
						"total":        insufficient.Total,
						"frame_errors": insufficient.FrameErrors,
					},
				},
			})
		}

		var appErr *domain.AppError
		if errors.As(err, &appErr) {
			if appErr.StatusCode >= 500 {
				logger.Error("internal error",
					slog.String("code", appErr.Code),
					slog.String("path", c.Path()),
					slog.Any("error", appErr.Err),
				)
				// Wrapped cause stays in the log, never in the response.
				return c.Status(appErr.StatusCode).JSON(fiber.Map{
					"error": fiber.Map{
						"code":    appErr.Code,
						"message": appErr.Message,
					},
				})
			}

			body := fiber.Map{
				"code":    appErr.Code,
				"message": appErr.Message,
			}
			if appErr.Err != nil {
				body["detail"] = appErr.Err.Error()
			}
			return c.Status(appErr.StatusCode).JSON(fiber.Map{"error": body})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    "HTTP_ERROR",
					"message": fiberErr.Message,
				},
			})
		}

		logger.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Path()),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "INTERNAL_ERROR",
				"message": "An unexpected error occurred",
			},
		})
	}
}
