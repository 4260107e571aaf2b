package handlers

import (
	"github.com/gofiber/fiber/v2"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/services"
)

// EpicHandler handles epic-related HTTP requests
type EpicHandler struct {
	epicService *services.EpicService
}

// NewEpicHandler creates a new epic handler
func NewEpicHandler(epicService *services.EpicService) *EpicHandler {
	return &EpicHandler{epicService: epicService}
}

// ListByProject returns a project's epics in display order
// GET /api/v1/projects/:id/epics
func (h *EpicHandler) ListByProject(c *fiber.Ctx) error {
	epics, err := h.epicService.ListByProject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(epics)
}

// Get returns one epic with its nested stories and tasks
// GET /api/v1/epics/:id
func (h *EpicHandler) Get(c *fiber.Ctx) error {
	epic, err := h.epicService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(epic)
}

// Create attaches a new epic to a project
// POST /api/v1/projects/:id/epics
func (h *EpicHandler) Create(c *fiber.Ctx) error {
	var req models.CreateEpicRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	epic, err := h.epicService.Create(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(epic)
}

// Update applies a partial update to an epic
// PATCH /api/v1/epics/:id
func (h *EpicHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateEpicRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	epic, err := h.epicService.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(epic)
}

// Delete removes an epic and its stories and tasks
// DELETE /api/v1/epics/:id
func (h *EpicHandler) Delete(c *fiber.Ctx) error {
	if err := h.epicService.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
