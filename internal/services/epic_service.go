package services

import (
	"context"

	"planai/internal/models"
	"planai/internal/store"
)

// EpicService owns epic CRUD under a project.
type EpicService struct {
	store store.Store
}

// NewEpicService creates a new epic service
func NewEpicService(st store.Store) *EpicService {
	return &EpicService{store: st}
}

// ListByProject returns a project's epics in ascending display order.
// The parent is fetched first so a bad project id is a NotFound, not an
// empty list.
func (s *EpicService) ListByProject(ctx context.Context, projectID string) ([]models.EpicResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	epics, err := s.store.ListEpics(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]models.EpicResponse, 0, len(epics))
	for i := range epics {
		out = append(out, models.ToEpicResponse(&epics[i]))
	}
	return out, nil
}

// Get returns an epic with its nested stories and tasks.
func (s *EpicService) Get(ctx context.Context, id string) (*models.EpicResponse, error) {
	e, err := s.store.GetEpicDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.ToEpicResponse(e)
	return &resp, nil
}

// Create attaches a new epic to the stated project.
func (s *EpicService) Create(ctx context.Context, projectID string, req *models.CreateEpicRequest) (*models.EpicResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	e := req.ToEpic(projectID)
	if err := s.store.CreateEpic(ctx, e); err != nil {
		return nil, err
	}
	resp := models.ToEpicResponse(e)
	return &resp, nil
}

// Update applies a partial update; absent fields are left unchanged.
func (s *EpicService) Update(ctx context.Context, id string, req *models.UpdateEpicRequest) (*models.EpicResponse, error) {
	e, err := s.store.GetEpic(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(e)
	if err := s.store.UpdateEpic(ctx, e); err != nil {
		return nil, err
	}
	resp := models.ToEpicResponse(e)
	return &resp, nil
}

// Delete removes an epic and, via cascade, its stories and tasks.
func (s *EpicService) Delete(ctx context.Context, id string) error {
	return s.store.DeleteEpic(ctx, id)
}
