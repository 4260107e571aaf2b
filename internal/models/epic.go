package models

import "planai/internal/apperr"

// Epic groups user stories under a project. It references its parent by id.
type Epic struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"projectId"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	OrderIndex  int      `json:"orderIndex"`

	// Stories is populated only by detail fetches.
	Stories []UserStory `json:"stories,omitempty"`
}

// CreateEpicRequest is the payload for POST /api/v1/projects/:id/epics.
type CreateEpicRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Priority    Priority `json:"priority"`
	Status      Status   `json:"status"`
	OrderIndex  int      `json:"orderIndex"`
}

// Validate checks the declared field constraints.
func (r *CreateEpicRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if isBlank(r.Title) {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
	}
	if len(r.Title) > 150 {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "size must be between 0 and 150"})
	}
	if len(r.Description) > 1000 {
		errs = append(errs, apperr.FieldError{Field: "description", Message: "size must be between 0 and 1000"})
	}
	if r.Priority != "" && !r.Priority.Valid() {
		errs = append(errs, apperr.FieldError{Field: "priority", Message: "must be one of HIGH, MEDIUM, LOW"})
	}
	if r.Status != "" && !r.Status.Valid() {
		errs = append(errs, apperr.FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
	}
	return errs
}

// ToEpic maps the request to a new unsaved entity under the given project.
// Omitted enums fall back to their defaults.
func (r *CreateEpicRequest) ToEpic(projectID string) *Epic {
	e := &Epic{
		ProjectID:   projectID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		OrderIndex:  r.OrderIndex,
	}
	if e.Priority == "" {
		e.Priority = PriorityMedium
	}
	if e.Status == "" {
		e.Status = StatusTodo
	}
	return e
}

// UpdateEpicRequest patches an epic. Nil fields are left unchanged.
type UpdateEpicRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Priority    *Priority `json:"priority"`
	Status      *Status   `json:"status"`
	OrderIndex  *int      `json:"orderIndex"`
}

// Validate checks the declared field constraints on the provided fields.
func (r *UpdateEpicRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if r.Title != nil {
		if isBlank(*r.Title) {
			errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
		}
		if len(*r.Title) > 150 {
			errs = append(errs, apperr.FieldError{Field: "title", Message: "size must be between 0 and 150"})
		}
	}
	if r.Description != nil && len(*r.Description) > 1000 {
		errs = append(errs, apperr.FieldError{Field: "description", Message: "size must be between 0 and 1000"})
	}
	if r.Priority != nil && !r.Priority.Valid() {
		errs = append(errs, apperr.FieldError{Field: "priority", Message: "must be one of HIGH, MEDIUM, LOW"})
	}
	if r.Status != nil && !r.Status.Valid() {
		errs = append(errs, apperr.FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
	}
	return errs
}

// Apply copies only the provided fields onto the entity.
func (r *UpdateEpicRequest) Apply(e *Epic) {
	if r.Title != nil {
		e.Title = *r.Title
	}
	if r.Description != nil {
		e.Description = *r.Description
	}
	if r.Priority != nil {
		e.Priority = *r.Priority
	}
	if r.Status != nil {
		e.Status = *r.Status
	}
	if r.OrderIndex != nil {
		e.OrderIndex = *r.OrderIndex
	}
}

// EpicResponse is the response shape for an epic, with nested stories.
type EpicResponse struct {
	ID          string              `json:"id"`
	ProjectID   string              `json:"projectId"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	Priority    Priority            `json:"priority"`
	Status      Status              `json:"status"`
	OrderIndex  int                 `json:"orderIndex"`
	Stories     []UserStoryResponse `json:"stories"`
}

// ToEpicResponse maps an epic, recursively mapping any loaded stories.
func ToEpicResponse(e *Epic) EpicResponse {
	stories := make([]UserStoryResponse, 0, len(e.Stories))
	for i := range e.Stories {
		stories = append(stories, ToUserStoryResponse(&e.Stories[i]))
	}
	return EpicResponse{
		ID:          e.ID,
		ProjectID:   e.ProjectID,
		Title:       e.Title,
		Description: e.Description,
		Priority:    e.Priority,
		Status:      e.Status,
		OrderIndex:  e.OrderIndex,
		Stories:     stories,
	}
}
