package models

import (
	"strings"
	"time"

	"planai/internal/apperr"
)

// Conversation is an open-ended message thread scoped to a project. It has
// no terminal state; it is only destroyed by cascade from project deletion.
type Conversation struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
}

// Message is a single conversation turn. Sequence order is creation order.
type Message struct {
	ID             string      `json:"id"`
	ConversationID string      `json:"conversationId"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	CreatedAt      time.Time   `json:"createdAt"`
}

// ChatRequest is the payload for POST /api/v1/projects/:id/chat.
type ChatRequest struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

// Validate checks the declared field constraints.
func (r *ChatRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if isBlank(r.Message) {
		errs = append(errs, apperr.FieldError{Field: "message", Message: "Message must not be blank"})
	}
	return errs
}

// MessageResponse is the response shape for a persisted message.
type MessageResponse struct {
	ID        string      `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ChatResponse returns both persisted messages plus the conversation id.
type ChatResponse struct {
	ConversationID   string          `json:"conversationId"`
	UserMessage      MessageResponse `json:"userMessage"`
	AssistantMessage MessageResponse `json:"assistantMessage"`
}

// ConversationResponse is the list shape for a conversation.
type ConversationResponse struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToMessageResponse maps a persisted message.
func ToMessageResponse(m *Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

// ToConversationResponse maps a conversation.
func ToConversationResponse(c *Conversation) ConversationResponse {
	return ConversationResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		CreatedAt: c.CreatedAt,
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
