package models

import "planai/internal/apperr"

// Task is the smallest unit of work, owned by a user story.
type Task struct {
	ID             string `json:"id"`
	StoryID        string `json:"storyId"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         Status `json:"status"`
	EstimatedHours *int   `json:"estimatedHours,omitempty"`
	OrderIndex     int    `json:"orderIndex"`
}

// CreateTaskRequest is the payload for POST /api/v1/stories/:id/tasks.
type CreateTaskRequest struct {
	Title          string `json:"title"`
	Description    string `json:"description"`
	Status         Status `json:"status"`
	EstimatedHours *int   `json:"estimatedHours"`
	OrderIndex     int    `json:"orderIndex"`
}

// Validate checks the declared field constraints.
func (r *CreateTaskRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if isBlank(r.Title) {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
	}
	if r.Status != "" && !r.Status.Valid() {
		errs = append(errs, apperr.FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
	}
	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		errs = append(errs, apperr.FieldError{Field: "estimatedHours", Message: "must be greater than or equal to 0"})
	}
	return errs
}

// ToTask maps the request to a new unsaved entity under the given story.
func (r *CreateTaskRequest) ToTask(storyID string) *Task {
	t := &Task{
		StoryID:        storyID,
		Title:          r.Title,
		Description:    r.Description,
		Status:         r.Status,
		EstimatedHours: r.EstimatedHours,
		OrderIndex:     r.OrderIndex,
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	return t
}

// UpdateTaskRequest patches a task. Nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	Status         *Status `json:"status"`
	EstimatedHours *int    `json:"estimatedHours"`
	OrderIndex     *int    `json:"orderIndex"`
}

// Validate checks the declared field constraints on the provided fields.
func (r *UpdateTaskRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if r.Title != nil && isBlank(*r.Title) {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
	}
	if r.Status != nil && !r.Status.Valid() {
		errs = append(errs, apperr.FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
	}
	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		errs = append(errs, apperr.FieldError{Field: "estimatedHours", Message: "must be greater than or equal to 0"})
	}
	return errs
}

// Apply copies only the provided fields onto the entity.
func (r *UpdateTaskRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.EstimatedHours != nil {
		t.EstimatedHours = r.EstimatedHours
	}
	if r.OrderIndex != nil {
		t.OrderIndex = *r.OrderIndex
	}
}

// TaskResponse is the response shape for a task.
type TaskResponse struct {
	ID             string `json:"id"`
	StoryID        string `json:"storyId"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Status         Status `json:"status"`
	EstimatedHours *int   `json:"estimatedHours,omitempty"`
	OrderIndex     int    `json:"orderIndex"`
}

// ToTaskResponse maps a task to its response shape.
func ToTaskResponse(t *Task) TaskResponse {
	return TaskResponse{
		ID:             t.ID,
		StoryID:        t.StoryID,
		Title:          t.Title,
		Description:    t.Description,
		Status:         t.Status,
		EstimatedHours: t.EstimatedHours,
		OrderIndex:     t.OrderIndex,
	}
}
