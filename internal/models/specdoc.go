package models

import "time"

// SpecDocument is a versioned, validated JSON specification produced by the
// generate endpoint. Content is stored as the raw JSON text; version numbers
// count up per project starting at 1.
type SpecDocument struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Version   int       `json:"version"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateRequest is the payload for POST /api/v1/projects/:id/generate.
type GenerateRequest struct {
	AdditionalRequirements string `json:"additionalRequirements"`
}

// SpecDocumentResponse is the response shape for a generated specification.
// Content is echoed as parsed JSON, not as a string blob.
type SpecDocumentResponse struct {
	ID        string      `json:"id"`
	ProjectID string      `json:"projectId"`
	Version   int         `json:"version"`
	Content   ProjectPlan `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
}

// ProjectPlan is the fixed schema the model is instructed to emit.
type ProjectPlan struct {
	ProjectTitle              string                   `json:"projectTitle"`
	ExecutiveSummary          string                   `json:"executiveSummary"`
	TargetAudience            []string                 `json:"targetAudience"`
	Modules                   []PlanModule             `json:"modules"`
	NonFunctionalRequirements []NonFunctionalReq       `json:"nonFunctionalRequirements"`
	TechnicalRecommendations  TechnicalRecommendations `json:"technicalRecommendations"`
	ProjectRisks              []ProjectRisk            `json:"projectRisks"`
	EstimatedComplexity       string                   `json:"estimatedComplexity"`
	SuggestedMvpFeatures      []string                 `json:"suggestedMvpFeatures"`
}

// PlanModule is an epic-level breakdown inside a generated plan.
type PlanModule struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Priority    string          `json:"priority"`
	UserStories []PlanUserStory `json:"userStories"`
}

// PlanUserStory is a story inside a generated plan module.
type PlanUserStory struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Story              string   `json:"story"`
	AcceptanceCriteria []string `json:"acceptanceCriteria"`
	Priority           string   `json:"priority"`
}

// NonFunctionalReq captures a measurable quality requirement.
type NonFunctionalReq struct {
	Category    string `json:"category"`
	Requirement string `json:"requirement"`
	Metric      string `json:"metric"`
}

// TechnicalRecommendations lists suggested stack choices per layer.
type TechnicalRecommendations struct {
	Frontend       []string `json:"frontend"`
	Backend        []string `json:"backend"`
	Database       []string `json:"database"`
	Infrastructure []string `json:"infrastructure"`
}

// ProjectRisk names a risk with its impact and mitigation.
type ProjectRisk struct {
	Risk       string `json:"risk"`
	Impact     string `json:"impact"`
	Mitigation string `json:"mitigation"`
}
