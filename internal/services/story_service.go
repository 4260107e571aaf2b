package services

import (
	"context"

	"planai/internal/models"
	"planai/internal/store"
)

// StoryService owns user-story CRUD under an epic.
type StoryService struct {
	store store.Store
}

// NewStoryService creates a new story service
func NewStoryService(st store.Store) *StoryService {
	return &StoryService{store: st}
}

// ListByEpic returns an epic's stories in ascending display order.
func (s *StoryService) ListByEpic(ctx context.Context, epicID string) ([]models.UserStoryResponse, error) {
	if _, err := s.store.GetEpic(ctx, epicID); err != nil {
		return nil, err
	}
	stories, err := s.store.ListStories(ctx, epicID)
	if err != nil {
		return nil, err
	}
	out := make([]models.UserStoryResponse, 0, len(stories))
	for i := range stories {
		out = append(out, models.ToUserStoryResponse(&stories[i]))
	}
	return out, nil
}

// Get returns a story with its nested tasks.
func (s *StoryService) Get(ctx context.Context, id string) (*models.UserStoryResponse, error) {
	st, err := s.store.GetStoryDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.ToUserStoryResponse(st)
	return &resp, nil
}

// Create attaches a new story to the stated epic.
func (s *StoryService) Create(ctx context.Context, epicID string, req *models.CreateStoryRequest) (*models.UserStoryResponse, error) {
	if _, err := s.store.GetEpic(ctx, epicID); err != nil {
		return nil, err
	}
	st := req.ToUserStory(epicID)
	if err := s.store.CreateStory(ctx, st); err != nil {
		return nil, err
	}
	resp := models.ToUserStoryResponse(st)
	return &resp, nil
}

// Update applies a partial update; absent fields are left unchanged.
func (s *StoryService) Update(ctx context.Context, id string, req *models.UpdateStoryRequest) (*models.UserStoryResponse, error) {
	st, err := s.store.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(st)
	if err := s.store.UpdateStory(ctx, st); err != nil {
		return nil, err
	}
	resp := models.ToUserStoryResponse(st)
	return &resp, nil
}

// Delete removes a story and, via cascade, its tasks.
func (s *StoryService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteStory(ctx, id)
}
