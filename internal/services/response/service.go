package response

import (
	"quizstream/internal/models"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// Service sends the JSON error bodies and stream headers used by the API.
type Service struct{}

// NewService creates a new response service.
func NewService() *Service {
	return &Service{}
}

// Error sends an { "error": message } body with the given status.
func (s *Service) Error(c *fiber.Ctx, status int, message, requestID string) error {
	fiberlog.Errorf("[%s] error %d: %s", requestID, status, message)
	return c.Status(status).JSON(models.ErrorResponse{Error: message})
}

// BadRequest sends a 400 error body.
func (s *Service) BadRequest(c *fiber.Ctx, message, requestID string) error {
	return s.Error(c, fiber.StatusBadRequest, message, requestID)
}

// InternalError sends a 500 error body.
func (s *Service) InternalError(c *fiber.Ctx, message, requestID string) error {
	return s.Error(c, fiber.StatusInternalServerError, message, requestID)
}

// SetStreamHeaders sets the SSE response headers.
func (s *Service) SetStreamHeaders(c *fiber.Ctx) {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("Access-Control-Allow-Origin", "*")
	c.Set("Access-Control-Allow-Headers", "Cache-Control")
}
