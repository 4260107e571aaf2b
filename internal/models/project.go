package models

import (
	"time"

	"planai/internal/apperr"
)

// Project is the top-level aggregate root. Epics and conversations reference
// it by id only; deleting a project cascades to everything beneath it.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`

	// Epics is populated only by detail fetches.
	Epics []Epic `json:"epics,omitempty"`
}

// ProjectCounts carries the child tallies surfaced on project listings.
type ProjectCounts struct {
	Epics         int64
	Stories       int64
	Tasks         int64
	Conversations int64
}

// ProjectWithCounts pairs a project with its child tallies.
type ProjectWithCounts struct {
	Project Project
	Counts  ProjectCounts
}

// CreateProjectRequest is the payload for POST /api/v1/projects.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Validate checks the declared field constraints.
func (r *CreateProjectRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if isBlank(r.Name) {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "Project name must not be blank"})
	}
	if len(r.Name) > 100 {
		errs = append(errs, apperr.FieldError{Field: "name", Message: "size must be between 0 and 100"})
	}
	if len(r.Description) > 500 {
		errs = append(errs, apperr.FieldError{Field: "description", Message: "size must be between 0 and 500"})
	}
	return errs
}

// ToProject maps the request to a new unsaved entity. Identity and the
// creation timestamp are assigned by the store.
func (r *CreateProjectRequest) ToProject() *Project {
	return &Project{
		Name:        r.Name,
		Description: r.Description,
	}
}

// UpdateProjectRequest is the payload for PUT /api/v1/projects/:id.
// Nil fields are left unchanged (partial update).
type UpdateProjectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Validate checks the declared field constraints on the provided fields.
func (r *UpdateProjectRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if r.Name != nil {
		if isBlank(*r.Name) {
			errs = append(errs, apperr.FieldError{Field: "name", Message: "Project name must not be blank"})
		}
		if len(*r.Name) > 100 {
			errs = append(errs, apperr.FieldError{Field: "name", Message: "size must be between 0 and 100"})
		}
	}
	if r.Description != nil && len(*r.Description) > 500 {
		errs = append(errs, apperr.FieldError{Field: "description", Message: "size must be between 0 and 500"})
	}
	return errs
}

// Apply copies only the provided fields onto the entity.
func (r *UpdateProjectRequest) Apply(p *Project) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
}

// ProjectResponse is the list/summary shape for a project.
type ProjectResponse struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	EpicsCount         int64     `json:"epicsCount"`
	StoriesCount       int64     `json:"storiesCount"`
	TasksCount         int64     `json:"tasksCount"`
	ConversationsCount int64     `json:"conversationsCount"`
}

// ProjectDetailResponse includes the full epic→story→task tree.
type ProjectDetailResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	Epics       []EpicResponse `json:"epics"`
}

// ToProjectResponse maps a project and its counts to the summary shape.
func ToProjectResponse(p *Project, counts ProjectCounts) ProjectResponse {
	return ProjectResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		CreatedAt:          p.CreatedAt,
		EpicsCount:         counts.Epics,
		StoriesCount:       counts.Stories,
		TasksCount:         counts.Tasks,
		ConversationsCount: counts.Conversations,
	}
}

// ToProjectDetailResponse maps a project with loaded children, recursively.
// An absent child collection maps to an empty slice, never null.
func ToProjectDetailResponse(p *Project) ProjectDetailResponse {
	epics := make([]EpicResponse, 0, len(p.Epics))
	for i := range p.Epics {
		epics = append(epics, ToEpicResponse(&p.Epics[i]))
	}
	return ProjectDetailResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		Epics:       epics,
	}
}
