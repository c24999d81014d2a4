package handler

import (
	"github.com/gofiber/fiber/v2"
)

// ReadyFunc reports whether the service can take verification traffic.
// The caller wires in the actual policy, typically extractor warm-up
// state plus store reachability.
type ReadyFunc func() bool

type HealthHandler struct {
	ready ReadyFunc
}

func NewHealthHandler(ready ReadyFunc) *HealthHandler {
	if ready == nil {
		ready = func() bool { return true }
	}
	return &HealthHandler{ready: ready}
}

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Health GET /health - liveness, returns without touching dependencies
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	})
}

// Ready GET /ready - readiness, false until the extractor is warm
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if !h.ready() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(HealthResponse{
			Status: "warming up",
		})
	}
	return c.JSON(HealthResponse{
		Status: "ready",
	})
}
