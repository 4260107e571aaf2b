package handlers

import (
	"github.com/gofiber/fiber/v2"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/services"
)

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// List returns all projects with child counts, newest first
// GET /api/v1/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	projects, err := h.projectService.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(projects)
}

// Get returns one project with child counts
// GET /api/v1/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	project, err := h.projectService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(project)
}

// GetDetail returns a project with its full epic/story/task tree
// GET /api/v1/projects/:id/detail
func (h *ProjectHandler) GetDetail(c *fiber.Ctx) error {
	project, err := h.projectService.GetDetail(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(project)
}

// Create creates a new project
// POST /api/v1/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var req models.CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	project, err := h.projectService.Create(c.Context(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

// Update applies a partial update to a project
// PATCH /api/v1/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	project, err := h.projectService.Update(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(project)
}

// Delete removes a project and everything under it
// DELETE /api/v1/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projectService.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
