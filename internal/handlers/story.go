package handlers

import (
	"github.com/gofiber/fiber/v2"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/services"
)

// StoryHandler handles user-story HTTP requests
type StoryHandler struct {
	storyService *services.StoryService
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(storyService *services.StoryService) *StoryHandler {
	return &StoryHandler{storyService: storyService}
}

// ListByEpic returns an epic's stories in display order
// GET /api/v1/epics/:id/stories
func (h *StoryHandler) ListByEpic(c *fiber.Ctx) error {
	stories, err := h.storyService.ListByEpic(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(stories)
}

// Get returns one story with its tasks
// GET /api/v1/stories/:id
func (h *StoryHandler) Get(c *fiber.Ctx) error {
	story, err := h.storyService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(story)
}

// Create attaches a new story to an epic
// POST /api/v1/epics/:id/stories
func (h *StoryHandler) Create(c *fiber.Ctx) error {
	var req models.CreateStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	story, err := h.storyService.Create(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(story)
}

// Update applies a partial update to a story
// PATCH /api/v1/stories/:id
func (h *StoryHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateStoryRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	story, err := h.storyService.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(story)
}

// Delete removes a story and its tasks
// DELETE /api/v1/stories/:id
func (h *StoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.storyService.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
