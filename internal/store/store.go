// Package store defines the persistence interface for the PlanAI domain.
// The postgres subpackage implements it against PostgreSQL; MemoryStore
// implements it in-process for tests and driverless local runs.
package store

import (
	"context"

	"planai/internal/models"
)

// Store is the persistence contract for all aggregates. Every method that
// resolves an id wraps apperr.ErrNotFound when nothing matches; writes that
// would violate project-name uniqueness wrap apperr.ErrConflict.
type Store interface {
	// Projects
	CreateProject(ctx context.Context, p *models.Project) error
	ListProjects(ctx context.Context) ([]models.ProjectWithCounts, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectWithCounts(ctx context.Context, id string) (*models.ProjectWithCounts, error)
	GetProjectDetail(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	// Epics
	CreateEpic(ctx context.Context, e *models.Epic) error
	ListEpics(ctx context.Context, projectID string) ([]models.Epic, error)
	GetEpic(ctx context.Context, id string) (*models.Epic, error)
	GetEpicDetail(ctx context.Context, id string) (*models.Epic, error)
	UpdateEpic(ctx context.Context, e *models.Epic) error
	DeleteEpic(ctx context.Context, id string) error

	// User stories
	CreateStory(ctx context.Context, s *models.UserStory) error
	ListStories(ctx context.Context, epicID string) ([]models.UserStory, error)
	GetStory(ctx context.Context, id string) (*models.UserStory, error)
	GetStoryDetail(ctx context.Context, id string) (*models.UserStory, error)
	UpdateStory(ctx context.Context, s *models.UserStory) error
	DeleteStory(ctx context.Context, id string) error

	// Tasks
	CreateTask(ctx context.Context, t *models.Task) error
	ListTasks(ctx context.Context, storyID string) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	UpdateTask(ctx context.Context, t *models.Task) error
	DeleteTask(ctx context.Context, id string) error

	// Conversations and messages
	CreateConversation(ctx context.Context, c *models.Conversation) error
	GetConversation(ctx context.Context, id string) (*models.Conversation, error)
	ListConversations(ctx context.Context, projectID string) ([]models.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]models.Message, error)
	// AppendExchange persists a user/assistant message pair atomically.
	AppendExchange(ctx context.Context, conversationID string, userMsg, assistantMsg *models.Message) error

	// Specification documents
	// CreateSpecDocument assigns the next version for the project.
	CreateSpecDocument(ctx context.Context, d *models.SpecDocument) error
	ListSpecDocuments(ctx context.Context, projectID string) ([]models.SpecDocument, error)
	LatestSpecDocument(ctx context.Context, projectID string) (*models.SpecDocument, error)

	Close()
}
