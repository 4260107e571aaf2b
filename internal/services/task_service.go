package services

import (
	"context"

	"planai/internal/models"
	"planai/internal/store"
)

// TaskService owns task CRUD under a user story.
type TaskService struct {
	store store.Store
}

// NewTaskService creates a new task service
func NewTaskService(st store.Store) *TaskService {
	return &TaskService{store: st}
}

// ListByStory returns a story's tasks in ascending display order.
func (s *TaskService) ListByStory(ctx context.Context, storyID string) ([]models.TaskResponse, error) {
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, err
	}
	tasks, err := s.store.ListTasks(ctx, storyID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TaskResponse, 0, len(tasks))
	for i := range tasks {
		out = append(out, models.ToTaskResponse(&tasks[i]))
	}
	return out, nil
}

// Get returns a single task.
func (s *TaskService) Get(ctx context.Context, id string) (*models.TaskResponse, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.ToTaskResponse(t)
	return &resp, nil
}

// Create attaches a new task to the stated story.
func (s *TaskService) Create(ctx context.Context, storyID string, req *models.CreateTaskRequest) (*models.TaskResponse, error) {
	if _, err := s.store.GetStory(ctx, storyID); err != nil {
		return nil, err
	}
	t := req.ToTask(storyID)
	if err := s.store.CreateTask(ctx, t); err != nil {
		return nil, err
	}
	resp := models.ToTaskResponse(t)
	return &resp, nil
}

// Update applies a partial update; absent fields are left unchanged.
func (s *TaskService) Update(ctx context.Context, id string, req *models.UpdateTaskRequest) (*models.TaskResponse, error) {
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(t)
	if err := s.store.UpdateTask(ctx, t); err != nil {
		return nil, err
	}
	resp := models.ToTaskResponse(t)
	return &resp, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}
