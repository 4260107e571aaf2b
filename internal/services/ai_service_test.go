package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"planai/internal/apperr"
	"planai/internal/llm"
	"planai/internal/models"
	"planai/internal/store"
)

// fakeCompleter returns scripted results, one per call.
type fakeCompleter struct {
	results      []completion
	calls        int
	lastMessages []llm.ChatMessage
}

type completion struct {
	content string
	err     error
}

func (f *fakeCompleter) Complete(_ context.Context, messages []llm.ChatMessage) (string, error) {
	f.lastMessages = messages
	if f.calls >= len(f.results) {
		return "", fmt.Errorf("unexpected call %d", f.calls+1)
	}
	r := f.results[f.calls]
	f.calls++
	return r.content, r.err
}

const planJSON = `{"projectTitle":"Shop","executiveSummary":"An online shop","modules":[{"name":"Catalog","priority":"HIGH","userStories":[]}],"estimatedComplexity":"medium"}`

func newAITestService(t *testing.T, results ...completion) (*AIService, *fakeCompleter, *store.MemoryStore) {
	t.Helper()
	m := store.NewMemoryStore()
	fake := &fakeCompleter{results: results}
	return NewAIService(m, fake, 3, time.Millisecond), fake, m
}

func createAITestProject(t *testing.T, m *store.MemoryStore) *models.Project {
	t.Helper()
	p := &models.Project{Name: "Shop", Description: "An online shop"}
	if err := m.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("Failed to create project: %v", err)
	}
	return p
}

func TestChatCreatesConversationAndPersistsExchange(t *testing.T) {
	svc, _, m := newAITestService(t, completion{content: "Sure, let's plan."})
	p := createAITestProject(t, m)

	resp, err := svc.Chat(context.Background(), p.ID, &models.ChatRequest{Message: "Help me plan"})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.ConversationID == "" {
		t.Fatal("expected a new conversation id")
	}
	if resp.UserMessage.Content != "Help me plan" || resp.AssistantMessage.Content != "Sure, let's plan." {
		t.Errorf("unexpected message contents: %+v", resp)
	}

	msgs, err := m.ListMessages(context.Background(), resp.ConversationID)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 persisted messages, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Role != models.RoleAssistant {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
}

func TestChatSendsHistoryOnFollowUp(t *testing.T) {
	svc, fake, m := newAITestService(t,
		completion{content: "First answer"},
		completion{content: "Second answer"},
	)
	p := createAITestProject(t, m)

	first, err := svc.Chat(context.Background(), p.ID, &models.ChatRequest{Message: "First question"})
	if err != nil {
		t.Fatalf("first Chat failed: %v", err)
	}

	_, err = svc.Chat(context.Background(), p.ID, &models.ChatRequest{
		Message:        "Second question",
		ConversationID: first.ConversationID,
	})
	if err != nil {
		t.Fatalf("second Chat failed: %v", err)
	}

	// system + 2 history turns + new user message
	if len(fake.lastMessages) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d", len(fake.lastMessages))
	}
	if fake.lastMessages[1].Role != "user" || fake.lastMessages[2].Role != "assistant" {
		t.Errorf("history roles should be lowered: %q, %q", fake.lastMessages[1].Role, fake.lastMessages[2].Role)
	}
	if fake.lastMessages[3].Content != "Second question" {
		t.Errorf("expected the new message last, got %q", fake.lastMessages[3].Content)
	}
}

func TestChatRejectsConversationFromOtherProject(t *testing.T) {
	svc, _, m := newAITestService(t, completion{content: "hi"})
	p := createAITestProject(t, m)
	other := &models.Project{Name: "Blog"}
	if err := m.CreateProject(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	conv := &models.Conversation{ProjectID: other.ID}
	if err := m.CreateConversation(context.Background(), conv); err != nil {
		t.Fatal(err)
	}

	_, err := svc.Chat(context.Background(), p.ID, &models.ChatRequest{Message: "hi", ConversationID: conv.ID})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found for foreign conversation, got %v", err)
	}
}

func TestChatRetriesThenSucceeds(t *testing.T) {
	svc, fake, m := newAITestService(t,
		completion{err: errors.New("upstream 500")},
		completion{err: errors.New("upstream 500")},
		completion{content: "Third time lucky"},
	)
	p := createAITestProject(t, m)

	resp, err := svc.Chat(context.Background(), p.ID, &models.ChatRequest{Message: "hi"})
	if err != nil {
		t.Fatalf("Chat should succeed on the third attempt: %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", fake.calls)
	}
	if resp.AssistantMessage.Content != "Third time lucky" {
		t.Errorf("unexpected assistant content: %q", resp.AssistantMessage.Content)
	}
}

func TestChatFailureLeavesNothingPersisted(t *testing.T) {
	svc, fake, m := newAITestService(t,
		completion{err: errors.New("upstream 500")},
		completion{err: errors.New("upstream 500")},
		completion{err: errors.New("upstream 500")},
	)
	p := createAITestProject(t, m)

	_, err := svc.Chat(context.Background(), p.ID, &models.ChatRequest{Message: "hi"})
	var aiErr *apperr.AIGenerationError
	if !errors.As(err, &aiErr) {
		t.Fatalf("expected AIGenerationError, got %v", err)
	}
	if fake.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", fake.calls)
	}

	convs, _ := m.ListConversations(context.Background(), p.ID)
	if len(convs) != 0 {
		t.Errorf("no conversation should exist after a failed chat, found %d", len(convs))
	}
}

func TestChatCancelledContextStopsRetrying(t *testing.T) {
	svc, fake, m := newAITestService(t,
		completion{err: errors.New("upstream 500")},
		completion{err: errors.New("upstream 500")},
		completion{content: "never reached"},
	)
	p := createAITestProject(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Chat(ctx, p.ID, &models.ChatRequest{Message: "hi"})
	var aiErr *apperr.AIGenerationError
	if !errors.As(err, &aiErr) {
		t.Fatalf("expected AIGenerationError, got %v", err)
	}
	if fake.calls > 1 {
		t.Errorf("cancelled context should stop retries, got %d attempts", fake.calls)
	}
}

func TestGenerateStoresValidatedPlan(t *testing.T) {
	svc, _, m := newAITestService(t, completion{content: planJSON})
	p := createAITestProject(t, m)

	doc, err := svc.Generate(context.Background(), p.ID, &models.GenerateRequest{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if doc.Version != 1 {
		t.Errorf("expected version 1, got %d", doc.Version)
	}
	if doc.Content.ProjectTitle != "Shop" {
		t.Errorf("expected parsed plan title, got %q", doc.Content.ProjectTitle)
	}

	stored, err := m.LatestSpecDocument(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("LatestSpecDocument failed: %v", err)
	}
	if stored.Version != 1 {
		t.Errorf("expected stored version 1, got %d", stored.Version)
	}
}

func TestGenerateStripsMarkdownFences(t *testing.T) {
	fenced := "Here is your plan:\n```json\n" + planJSON + "\n```\nLet me know!"
	svc, _, m := newAITestService(t, completion{content: fenced})
	p := createAITestProject(t, m)

	doc, err := svc.Generate(context.Background(), p.ID, &models.GenerateRequest{})
	if err != nil {
		t.Fatalf("Generate failed on fenced reply: %v", err)
	}
	if doc.Content.ProjectTitle != "Shop" {
		t.Errorf("expected parsed plan title, got %q", doc.Content.ProjectTitle)
	}
}

func TestGenerateRejectsMalformedReply(t *testing.T) {
	svc, _, m := newAITestService(t, completion{content: "I cannot produce JSON today."})
	p := createAITestProject(t, m)

	_, err := svc.Generate(context.Background(), p.ID, &models.GenerateRequest{})
	var aiErr *apperr.AIGenerationError
	if !errors.As(err, &aiErr) {
		t.Fatalf("expected AIGenerationError, got %v", err)
	}

	docs, _ := m.ListSpecDocuments(context.Background(), p.ID)
	if len(docs) != 0 {
		t.Errorf("no document should be stored for a malformed reply, found %d", len(docs))
	}
}

func TestGenerateIncrementsVersionPerProject(t *testing.T) {
	svc, _, m := newAITestService(t,
		completion{content: planJSON},
		completion{content: planJSON},
	)
	p := createAITestProject(t, m)

	if _, err := svc.Generate(context.Background(), p.ID, &models.GenerateRequest{}); err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	doc, err := svc.Generate(context.Background(), p.ID, &models.GenerateRequest{})
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
}

func TestGenerateUnknownProject(t *testing.T) {
	svc, fake, _ := newAITestService(t, completion{content: planJSON})

	_, err := svc.Generate(context.Background(), "missing", &models.GenerateRequest{})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if fake.calls != 0 {
		t.Errorf("no completion call should happen for an unknown project, got %d", fake.calls)
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"pure json", `{"projectTitle":"x"}`, `{"projectTitle":"x"}`},
		{"fenced", "```json\n{\"projectTitle\":\"x\"}\n```", `{"projectTitle":"x"}`},
		{"fenced no tag", "```\n{\"projectTitle\":\"x\"}\n```", `{"projectTitle":"x"}`},
		{"prose around object", "Sure: {\"projectTitle\":\"x\"} done", `{"projectTitle":"x"}`},
		{"whitespace", "  {\"projectTitle\":\"x\"}  ", `{"projectTitle":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractJSON(tt.content); got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}
