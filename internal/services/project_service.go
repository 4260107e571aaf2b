package services

import (
	"context"
	"log"

	"planai/internal/models"
	"planai/internal/store"
)

// ProjectService owns project CRUD. Existence checks and the NotFound
// translation happen here; cascade deletion is a storage-layer guarantee.
type ProjectService struct {
	store store.Store
}

// NewProjectService creates a new project service
func NewProjectService(st store.Store) *ProjectService {
	return &ProjectService{store: st}
}

// List returns all projects newest-first with their child counts.
func (s *ProjectService) List(ctx context.Context) ([]models.ProjectResponse, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]models.ProjectResponse, 0, len(projects))
	for i := range projects {
		out = append(out, models.ToProjectResponse(&projects[i].Project, projects[i].Counts))
	}
	return out, nil
}

// Get returns a single project summary.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.ProjectResponse, error) {
	pc, err := s.store.GetProjectWithCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.ToProjectResponse(&pc.Project, pc.Counts)
	return &resp, nil
}

// GetDetail returns a project with its full epic→story→task tree.
func (s *ProjectService) GetDetail(ctx context.Context, id string) (*models.ProjectDetailResponse, error) {
	p, err := s.store.GetProjectDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := models.ToProjectDetailResponse(p)
	return &resp, nil
}

// Create validates nothing itself; the handler has already run the request
// constraints. Duplicate names surface as Conflict from the store.
func (s *ProjectService) Create(ctx context.Context, req *models.CreateProjectRequest) (*models.ProjectResponse, error) {
	p := req.ToProject()
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	log.Printf("✅ Created project %s (%q)", p.ID, p.Name)
	resp := models.ToProjectResponse(p, models.ProjectCounts{})
	return &resp, nil
}

// Update applies a partial update; absent fields are left unchanged.
func (s *ProjectService) Update(ctx context.Context, id string, req *models.UpdateProjectRequest) (*models.ProjectResponse, error) {
	pc, err := s.store.GetProjectWithCounts(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Apply(&pc.Project)
	if err := s.store.UpdateProject(ctx, &pc.Project); err != nil {
		return nil, err
	}
	resp := models.ToProjectResponse(&pc.Project, pc.Counts)
	return &resp, nil
}

// Delete removes a project; descendants go with it via cascade.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return err
	}
	log.Printf("✅ Deleted project %s", id)
	return nil
}
