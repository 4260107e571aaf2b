package models

import "planai/internal/apperr"

// UserStory is the "as a / I want / so that" planning unit under an epic.
type UserStory struct {
	ID         string   `json:"id"`
	EpicID     string   `json:"epicId"`
	Title      string   `json:"title"`
	AsA        string   `json:"asA,omitempty"`
	IWant      string   `json:"iWant,omitempty"`
	SoThat     string   `json:"soThat,omitempty"`
	Priority   Priority `json:"priority"`
	Status     Status   `json:"status"`
	OrderIndex int      `json:"orderIndex"`

	// Tasks is populated only by detail fetches.
	Tasks []Task `json:"tasks,omitempty"`
}

// CreateStoryRequest is the payload for POST /api/v1/epics/:id/stories.
type CreateStoryRequest struct {
	Title      string   `json:"title"`
	AsA        string   `json:"asA"`
	IWant      string   `json:"iWant"`
	SoThat     string   `json:"soThat"`
	Priority   Priority `json:"priority"`
	Status     Status   `json:"status"`
	OrderIndex int      `json:"orderIndex"`
}

// Validate checks the declared field constraints.
func (r *CreateStoryRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if isBlank(r.Title) {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
	}
	for _, f := range []struct {
		name  string
		value string
	}{{"asA", r.AsA}, {"iWant", r.IWant}, {"soThat", r.SoThat}} {
		if len(f.value) > 500 {
			errs = append(errs, apperr.FieldError{Field: f.name, Message: "size must be between 0 and 500"})
		}
	}
	if r.Priority != "" && !r.Priority.Valid() {
		errs = append(errs, apperr.FieldError{Field: "priority", Message: "must be one of HIGH, MEDIUM, LOW"})
	}
	if r.Status != "" && !r.Status.Valid() {
		errs = append(errs, apperr.FieldError{Field: "status", Message: "must be one of TODO, IN_PROGRESS, DONE"})
	}
	return errs
}

// ToUserStory maps the request to a new unsaved entity under the given epic.
func (r *CreateStoryRequest) ToUserStory(epicID string) *UserStory {
	s := &UserStory{
		EpicID:     epicID,
		Title:      r.Title,
		AsA:        r.AsA,
		IWant:      r.IWant,
		SoThat:     r.SoThat,
		Priority:   r.Priority,
		Status:     r.Status,
		OrderIndex: r.OrderIndex,
	}
	if s.Priority == "" {
		s.Priority = PriorityMedium
	}
	if s.Status == "" {
		s.Status = StatusTodo
	}
	return s
}

// UpdateStoryRequest patches a story. Nil fields are left unchanged.
type UpdateStoryRequest struct {
	Title      *string   `json:"title"`
	AsA        *string   `json:"asA"`
	IWant      *string   `json:"iWant"`
	SoThat     *string   `json:"soThat"`
	Priority   *Priority `json:"priority"`
	Status     *Status   `json:"status"`
	OrderIndex *int      `json:"orderIndex"`
}

// Validate checks the declared field constraints on the provided fields.
func (r *UpdateStoryRequest) Validate() []apperr.FieldError {
	var errs []apperr.FieldError
	if r.Title != nil && isBlank(*r.Title) {
		errs = append(errs, apperr.FieldError{Field: "title", Message: "Title must not be blank"})
	}
	for _, f := range []struct {
		name  string
		value *string
	}{{"asA", r.AsA}, {"iWant", r.IWant}, {"soThat", r.SoThat}} {
		if f.value != nil && len(*f.value) > 500 {
			errs = append(errs, apperr.FieldError{Field: f.name, Message: "size must be between 0 and 500"})
		}
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
func (r *UpdateStoryRequest) Apply(s *UserStory) {
	if r.Title != nil {
		s.Title = *r.Title
	}
	if r.AsA != nil {
		s.AsA = *r.AsA
	}
	if r.IWant != nil {
		s.IWant = *r.IWant
	}
	if r.SoThat != nil {
		s.SoThat = *r.SoThat
	}
	if r.Priority != nil {
		s.Priority = *r.Priority
	}
	if r.Status != nil {
		s.Status = *r.Status
	}
	if r.OrderIndex != nil {
		s.OrderIndex = *r.OrderIndex
	}
}

// UserStoryResponse is the response shape for a story, with nested tasks.
type UserStoryResponse struct {
	ID         string         `json:"id"`
	EpicID     string         `json:"epicId"`
	Title      string         `json:"title"`
	AsA        string         `json:"asA,omitempty"`
	IWant      string         `json:"iWant,omitempty"`
	SoThat     string         `json:"soThat,omitempty"`
	Priority   Priority       `json:"priority"`
	Status     Status         `json:"status"`
	OrderIndex int            `json:"orderIndex"`
	Tasks      []TaskResponse `json:"tasks"`
}

// ToUserStoryResponse maps a story, recursively mapping any loaded tasks.
func ToUserStoryResponse(s *UserStory) UserStoryResponse {
	tasks := make([]TaskResponse, 0, len(s.Tasks))
	for i := range s.Tasks {
		tasks = append(tasks, ToTaskResponse(&s.Tasks[i]))
	}
	return UserStoryResponse{
		ID:         s.ID,
		EpicID:     s.EpicID,
		Title:      s.Title,
		AsA:        s.AsA,
		IWant:      s.IWant,
		SoThat:     s.SoThat,
		Priority:   s.Priority,
		Status:     s.Status,
		OrderIndex: s.OrderIndex,
		Tasks:      tasks,
	}
}
