package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"planai/internal/apperr"
	"planai/internal/llm"
	"planai/internal/logging"
	"planai/internal/models"
	"planai/internal/store"
)

// AIService orchestrates the two LLM-backed operations: project chat and
// specification generation. Nothing is persisted until a completion attempt
// has succeeded, so a failed call leaves the database untouched.
type AIService struct {
	store       store.Store
	completer   llm.Completer
	planCache   *cache.Cache // latest parsed plan per project id
	maxAttempts int
	backoffBase time.Duration
	metrics     *Metrics
}

// NewAIService creates the AI orchestration service
func NewAIService(st store.Store, completer llm.Completer, maxAttempts int, backoffBase time.Duration) *AIService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &AIService{
		store:       st,
		completer:   completer,
		planCache:   cache.New(10*time.Minute, 15*time.Minute),
		maxAttempts: maxAttempts,
		backoffBase: backoffBase,
		metrics:     GetMetrics(),
	}
}

// Chat runs one conversation turn: it resolves (or later creates) the
// conversation, sends the full history plus the new message to the model,
// and persists the user/assistant pair atomically after the completion
// succeeds.
func (s *AIService) Chat(ctx context.Context, projectID string, req *models.ChatRequest) (*models.ChatResponse, error) {
	start := time.Now()
	s.metrics.RecordAIRequest()

	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var history []models.Message
	if req.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
		// A conversation id from another project is treated as unknown.
		if conv.ProjectID != projectID {
			return nil, apperr.NewNotFound("Conversation", req.ConversationID)
		}
		history, err = s.store.ListMessages(ctx, req.ConversationID)
		if err != nil {
			return nil, err
		}
	}

	messages := make([]llm.ChatMessage, 0, len(history)+2)
	messages = append(messages, llm.ChatMessage{Role: "system", Content: s.chatSystemPrompt(ctx, project)})
	for i := range history {
		// Stored roles are uppercase; the completions API wants lowercase.
		messages = append(messages, llm.ChatMessage{Role: strings.ToLower(string(history[i].Role)), Content: history[i].Content})
	}
	messages = append(messages, llm.ChatMessage{Role: "user", Content: req.Message})

	log.Printf("💬 [AI-CHAT] Project %s: sending %d messages to model", projectID, len(messages))
	reply, err := s.completeWithRetry(ctx, messages)
	if err != nil {
		s.metrics.RecordAIError("completion")
		return nil, err
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conv := &models.Conversation{ProjectID: projectID}
		if err := s.store.CreateConversation(ctx, conv); err != nil {
			return nil, err
		}
		conversationID = conv.ID
	}

	userMsg := &models.Message{Role: models.RoleUser, Content: req.Message}
	assistantMsg := &models.Message{Role: models.RoleAssistant, Content: reply}
	if err := s.store.AppendExchange(ctx, conversationID, userMsg, assistantMsg); err != nil {
		return nil, err
	}

	s.metrics.RecordAILatency(time.Since(start).Seconds())
	chatLog := logging.WithConversation(logging.WithProject(projectID), conversationID)
	chatLog.Info("chat exchange persisted", "history_len", len(history), "duration", time.Since(start).String())
	return &models.ChatResponse{
		ConversationID:   conversationID,
		UserMessage:      models.ToMessageResponse(userMsg),
		AssistantMessage: models.ToMessageResponse(assistantMsg),
	}, nil
}

// Generate produces the next specification document version for a project.
// The model reply must parse into the ProjectPlan schema; anything else
// counts as a generation failure and nothing is stored.
func (s *AIService) Generate(ctx context.Context, projectID string, req *models.GenerateRequest) (*models.SpecDocumentResponse, error) {
	start := time.Now()
	s.metrics.RecordAIRequest()

	project, err := s.store.GetProjectDetail(ctx, projectID)
	if err != nil {
		return nil, err
	}

	messages := []llm.ChatMessage{
		{Role: "system", Content: generateSystemPrompt},
		{Role: "user", Content: buildGeneratePrompt(project, req.AdditionalRequirements)},
	}

	log.Printf("📝 [AI-GEN] Project %s: requesting specification", projectID)
	content, err := s.completeWithRetry(ctx, messages)
	if err != nil {
		s.metrics.RecordAIError("completion")
		return nil, err
	}

	var plan models.ProjectPlan
	if err := json.Unmarshal([]byte(extractJSON(content)), &plan); err != nil {
		s.metrics.RecordAIError("parse")
		log.Printf("⚠️ [AI-GEN] Model reply was not a valid plan: %v", err)
		return nil, &apperr.AIGenerationError{Cause: fmt.Errorf("parse plan JSON: %w", err)}
	}

	// Store the canonical re-marshalled form, not the raw reply.
	canonical, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("marshal plan: %w", err)
	}

	doc := &models.SpecDocument{ProjectID: projectID, Content: string(canonical)}
	if err := s.store.CreateSpecDocument(ctx, doc); err != nil {
		return nil, err
	}
	s.planCache.Set(projectID, plan, cache.DefaultExpiration)

	s.metrics.RecordSpecDocument()
	s.metrics.RecordAILatency(time.Since(start).Seconds())
	logging.WithProject(projectID).Info("specification stored",
		"version", doc.Version,
		"modules", len(plan.Modules),
		"duration", time.Since(start).String())
	return toSpecDocumentResponse(doc, plan), nil
}

// ListConversations returns a project's conversations, newest first.
func (s *AIService) ListConversations(ctx context.Context, projectID string) ([]models.ConversationResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	convs, err := s.store.ListConversations(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]models.ConversationResponse, 0, len(convs))
	for i := range convs {
		out = append(out, models.ToConversationResponse(&convs[i]))
	}
	return out, nil
}

// ListMessages returns a conversation's messages in sequence order.
func (s *AIService) ListMessages(ctx context.Context, conversationID string) ([]models.MessageResponse, error) {
	msgs, err := s.store.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	out := make([]models.MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, models.ToMessageResponse(&msgs[i]))
	}
	return out, nil
}

// ListSpecDocuments returns a project's specification versions, newest first.
func (s *AIService) ListSpecDocuments(ctx context.Context, projectID string) ([]models.SpecDocumentResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListSpecDocuments(ctx, projectID)
	if err != nil {
		return nil, err
	}
	out := make([]models.SpecDocumentResponse, 0, len(docs))
	for i := range docs {
		resp, err := specDocResponse(&docs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *resp)
	}
	return out, nil
}

// LatestSpecDocument returns the highest stored version for a project.
func (s *AIService) LatestSpecDocument(ctx context.Context, projectID string) (*models.SpecDocumentResponse, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	doc, err := s.store.LatestSpecDocument(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return specDocResponse(doc)
}

// completeWithRetry runs bounded completion attempts with doubling backoff.
// Context cancellation aborts the wait between attempts immediately.
func (s *AIService) completeWithRetry(ctx context.Context, messages []llm.ChatMessage) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if attempt > 1 {
			s.metrics.RecordAIRetry()
			delay := s.backoffBase << (attempt - 2)
			log.Printf("🔄 [AI] Attempt %d/%d after %v: %v", attempt, s.maxAttempts, delay, lastErr)
			select {
			case <-ctx.Done():
				return "", &apperr.AIGenerationError{Cause: ctx.Err()}
			case <-time.After(delay):
			}
		}
		content, err := s.completer.Complete(ctx, messages)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return "", &apperr.AIGenerationError{Cause: lastErr}
}

// chatSystemPrompt frames the assistant with the project and, when one
// exists, a summary of the latest generated plan. The parsed plan is cached
// so repeated chat turns do not re-read the document on every message.
func (s *AIService) chatSystemPrompt(ctx context.Context, project *models.Project) string {
	var b strings.Builder
	b.WriteString("You are a software planning assistant helping refine the project described below.\n\n")
	fmt.Fprintf(&b, "Project: %s\n", project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", project.Description)
	}
	if plan := s.latestPlan(ctx, project.ID); plan != nil {
		fmt.Fprintf(&b, "\nA specification already exists (title: %q, %d modules). Build on it rather than starting over.\n",
			plan.ProjectTitle, len(plan.Modules))
	}
	b.WriteString("\nAnswer concretely and keep the scope tied to this project.")
	return b.String()
}

func (s *AIService) latestPlan(ctx context.Context, projectID string) *models.ProjectPlan {
	if cached, ok := s.planCache.Get(projectID); ok {
		plan := cached.(models.ProjectPlan)
		return &plan
	}
	doc, err := s.store.LatestSpecDocument(ctx, projectID)
	if err != nil {
		return nil // no document yet, or transient store error; chat proceeds without it
	}
	var plan models.ProjectPlan
	if err := json.Unmarshal([]byte(doc.Content), &plan); err != nil {
		return nil
	}
	s.planCache.Set(projectID, plan, cache.DefaultExpiration)
	return &plan
}

const generateSystemPrompt = `You are a software architect producing a structured project specification.

Respond with a single JSON object and nothing else. The object must have exactly these fields:
{
  "projectTitle": string,
  "executiveSummary": string,
  "targetAudience": [string],
  "modules": [{"name": string, "description": string, "priority": "HIGH"|"MEDIUM"|"LOW",
               "userStories": [{"id": string, "title": string, "story": string,
                                "acceptanceCriteria": [string], "priority": "HIGH"|"MEDIUM"|"LOW"}]}],
  "nonFunctionalRequirements": [{"category": string, "requirement": string, "metric": string}],
  "technicalRecommendations": {"frontend": [string], "backend": [string], "database": [string], "infrastructure": [string]},
  "projectRisks": [{"risk": string, "impact": string, "mitigation": string}],
  "estimatedComplexity": string,
  "suggestedMvpFeatures": [string]
}`

// buildGeneratePrompt describes the project and its current planning
// hierarchy so regenerated specifications stay consistent with prior work.
func buildGeneratePrompt(project *models.Project, additional string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a specification for this project.\n\nProject: %s\n", project.Name)
	if project.Description != "" {
		fmt.Fprintf(&b, "Description: %s\n", project.Description)
	}
	if len(project.Epics) > 0 {
		b.WriteString("\nExisting planning hierarchy:\n")
		for _, e := range project.Epics {
			fmt.Fprintf(&b, "- Epic: %s [%s/%s]\n", e.Title, e.Priority, e.Status)
			for _, st := range e.Stories {
				fmt.Fprintf(&b, "  - Story: %s\n", st.Title)
			}
		}
	}
	if strings.TrimSpace(additional) != "" {
		fmt.Fprintf(&b, "\nAdditional requirements:\n%s\n", additional)
	}
	return b.String()
}

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*\\n?```")
	planRe  = regexp.MustCompile(`(?s)\{.*"projectTitle".*\}`)
)

// extractJSON pulls the JSON object out of a reply that may be wrapped in a
// markdown code fence or surrounded by prose.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "{") {
		return content
	}
	if matches := fenceRe.FindStringSubmatch(content); len(matches) > 1 {
		return matches[1]
	}
	if match := planRe.FindString(content); match != "" {
		return match
	}
	return content
}

func specDocResponse(doc *models.SpecDocument) (*models.SpecDocumentResponse, error) {
	var plan models.ProjectPlan
	if err := json.Unmarshal([]byte(doc.Content), &plan); err != nil {
		return nil, fmt.Errorf("decode stored plan %s: %w", doc.ID, err)
	}
	return toSpecDocumentResponse(doc, plan), nil
}

func toSpecDocumentResponse(doc *models.SpecDocument, plan models.ProjectPlan) *models.SpecDocumentResponse {
	return &models.SpecDocumentResponse{
		ID:        doc.ID,
		ProjectID: doc.ProjectID,
		Version:   doc.Version,
		Content:   plan,
		CreatedAt: doc.CreatedAt,
	}
}
