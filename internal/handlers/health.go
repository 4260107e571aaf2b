package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger reports whether the backing store is reachable. The postgres store
// implements it; MemoryStore does not, so the check is skipped there.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	pinger Pinger
}

// NewHealthHandler creates a new health handler. pinger may be nil.
func NewHealthHandler(pinger Pinger) *HealthHandler {
	return &HealthHandler{pinger: pinger}
}

// Handle responds with server health status
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	database := "not configured"
	if h.pinger != nil {
		database = "up"
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		if err := h.pinger.Ping(ctx); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status":    "degraded",
				"database":  "down",
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"database":  database,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
