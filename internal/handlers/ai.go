package handlers

import (
	"github.com/gofiber/fiber/v2"

	"planai/internal/apperr"
	"planai/internal/models"
	"planai/internal/services"
)

// AIHandler handles the LLM-backed endpoints: chat, generate, and reads of
// their persisted artifacts.
type AIHandler struct {
	aiService *services.AIService
}

// NewAIHandler creates a new AI handler
func NewAIHandler(aiService *services.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// Chat runs one conversation turn against the model
// POST /api/v1/projects/:id/chat
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if fields := req.Validate(); len(fields) > 0 {
		return &apperr.ValidationError{Fields: fields}
	}

	resp, err := h.aiService.Chat(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Generate produces the next specification document version
// POST /api/v1/projects/:id/generate
func (h *AIHandler) Generate(c *fiber.Ctx) error {
	var req models.GenerateRequest
	// An empty body means no additional requirements.
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
	}

	doc, err := h.aiService.Generate(c.Context(), c.Params("id"), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// ListConversations returns a project's conversations, newest first
// GET /api/v1/projects/:id/conversations
func (h *AIHandler) ListConversations(c *fiber.Ctx) error {
	convs, err := h.aiService.ListConversations(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(convs)
}

// ListMessages returns a conversation's messages in sequence order
// GET /api/v1/conversations/:id/messages
func (h *AIHandler) ListMessages(c *fiber.Ctx) error {
	msgs, err := h.aiService.ListMessages(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(msgs)
}

// ListSpecDocuments returns a project's specification versions, newest first
// GET /api/v1/projects/:id/specifications
func (h *AIHandler) ListSpecDocuments(c *fiber.Ctx) error {
	docs, err := h.aiService.ListSpecDocuments(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(docs)
}

// LatestSpecDocument returns the highest stored specification version
// GET /api/v1/projects/:id/specifications/latest
func (h *AIHandler) LatestSpecDocument(c *fiber.Ctx) error {
	doc, err := h.aiService.LatestSpecDocument(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(doc)
}
