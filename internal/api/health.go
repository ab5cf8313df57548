package api

import (
	"quizstream/internal/config"

	"github.com/gofiber/fiber/v2"
)

// HealthHandler reports service liveness and the active generation setup.
type HealthHandler struct {
	cfg *config.Config
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(cfg *config.Config) *HealthHandler {
	return &HealthHandler{cfg: cfg}
}

// HealthCheck handles GET /health.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":   "ok",
		"provider": h.cfg.Generation.Provider,
		"model":    h.cfg.Generation.Model,
	})
}
