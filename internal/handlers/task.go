package handlers

import (
	"github.com/gofiber/fiber/v2"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/services"
)

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListByStory returns a story's tasks in display order
// GET /api/v1/stories/:id/tasks
func (h *TaskHandler) ListByStory(c *fiber.Ctx) error {
	tasks, err := h.taskService.ListByStory(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(tasks)
}

// Get returns one task
// GET /api/v1/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	task, err := h.taskService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// Create attaches a new task to a story
// POST /api/v1/stories/:id/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req models.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	task, err := h.taskService.Create(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(task)
}

// Update applies a partial update to a task
// PATCH /api/v1/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	task, err := h.taskService.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(task)
}

// Delete removes a task
// DELETE /api/v1/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	if err := h.taskService.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
