package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"planai/internal/llm"
	"planai/internal/services"
	"planai/internal/store"
)

// scriptedCompleter returns canned replies, one per call.
type scriptedCompleter struct {
	replies []string
	err     error
	calls   int
}

func (s *scriptedCompleter) Complete(_ context.Context, _ []llm.ChatMessage) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("no scripted reply")
	}
	reply := s.replies[0]
	if len(s.replies) > 1 {
		s.replies = s.replies[1:]
	}
	return reply, nil
}

func setupTestApp(completer llm.Completer) (*fiber.App, *store.MemoryStore) {
	m := store.NewMemoryStore()

	projectHandler := NewProjectHandler(services.NewProjectService(m))
	epicHandler := NewEpicHandler(services.NewEpicService(m))
	storyHandler := NewStoryHandler(services.NewStoryService(m))
	taskHandler := NewTaskHandler(services.NewTaskService(m))
	aiHandler := NewAIHandler(services.NewAIService(m, completer, 3, time.Millisecond))

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})

	app.Get("/health", NewHealthHandler(nil).Handle)

	api := app.Group("/api/v1")

	projects := api.Group("/projects")
	projects.Get("/", projectHandler.List)
	projects.Post("/", projectHandler.Create)
	projects.Get("/:id", projectHandler.Get)
	projects.Get("/:id/detail", projectHandler.GetDetail)
	projects.Put("/:id", projectHandler.Update)
	projects.Patch("/:id", projectHandler.Update)
	projects.Delete("/:id", projectHandler.Delete)
	projects.Get("/:id/epics", epicHandler.ListByProject)
	projects.Post("/:id/epics", epicHandler.Create)
	projects.Post("/:id/chat", aiHandler.Chat)
	projects.Post("/:id/generate", aiHandler.Generate)
	projects.Get("/:id/conversations", aiHandler.ListConversations)
	projects.Get("/:id/specifications", aiHandler.ListSpecDocuments)
	projects.Get("/:id/specifications/latest", aiHandler.LatestSpecDocument)

	epics := api.Group("/epics")
	epics.Get("/:id", epicHandler.Get)
	epics.Put("/:id", epicHandler.Update)
	epics.Patch("/:id", epicHandler.Update)
	epics.Delete("/:id", epicHandler.Delete)
	epics.Get("/:id/stories", storyHandler.ListByEpic)
	epics.Post("/:id/stories", storyHandler.Create)

	stories := api.Group("/stories")
	stories.Get("/:id", storyHandler.Get)
	stories.Put("/:id", storyHandler.Update)
	stories.Patch("/:id", storyHandler.Update)
	stories.Delete("/:id", storyHandler.Delete)
	stories.Get("/:id/tasks", taskHandler.ListByStory)
	stories.Post("/:id/tasks", taskHandler.Create)

	tasks := api.Group("/tasks")
	tasks.Get("/:id", taskHandler.Get)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Patch("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)

	conversations := api.Group("/conversations")
	conversations.Get("/:id/messages", aiHandler.ListMessages)

	return app, m
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) (int, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			t.Fatalf("decode response %s: %v", raw, err)
		}
	}
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, app *fiber.App, path string) (int, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request GET %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var decoded []map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode list response %s: %v", raw, err)
	}
	return resp.StatusCode, decoded
}

func TestHealthEndpoint(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	status, body := doJSON(t, app, http.MethodGet, "/health", nil)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if body["status"] != "healthy" {
		t.Errorf("expected healthy status, got %v", body["status"])
	}
}

func TestProjectValidationEnvelope(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "   "})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if body["error"] != "Bad Request" || body["status"] != float64(400) {
		t.Errorf("unexpected envelope: %v", body)
	}
	fieldErrors, ok := body["fieldErrors"].([]any)
	if !ok || len(fieldErrors) == 0 {
		t.Fatalf("expected fieldErrors, got %v", body["fieldErrors"])
	}
	first := fieldErrors[0].(map[string]any)
	if first["field"] != "name" {
		t.Errorf("expected a name field error, got %v", first)
	}
	if body["path"] != "/api/v1/projects" {
		t.Errorf("expected request path in envelope, got %v", body["path"])
	}
}

func TestProjectNotFoundEnvelope(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	status, body := doJSON(t, app, http.MethodGet, "/api/v1/projects/nope", nil)
	if status != fiber.StatusNotFound {
		t.Fatalf("expected 404, got %d", status)
	}
	if body["error"] != "Not Found" {
		t.Errorf("unexpected error label: %v", body["error"])
	}
	if body["message"] != "Project with ID nope does not exist" {
		t.Errorf("unexpected message: %v", body["message"])
	}
}

func TestProjectDuplicateNameEnvelope(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	if status, _ := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"}); status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d", status)
	}
	status, body := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"})
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409, got %d", status)
	}
	if body["error"] != "Conflict" {
		t.Errorf("unexpected error label: %v", body["error"])
	}
}

func TestFullPlanningScenario(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	status, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":        "Shop",
		"description": "An online shop",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create project: expected 201, got %d", status)
	}
	projectID := project["id"].(string)

	status, epic := doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/epics", map[string]any{
		"title":    "Catalog",
		"priority": "HIGH",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create epic: expected 201, got %d", status)
	}
	epicID := epic["id"].(string)

	status, story := doJSON(t, app, http.MethodPost, "/api/v1/epics/"+epicID+"/stories", map[string]any{
		"title": "Browse products",
		"asA":   "shopper",
		"iWant": "to browse the catalog",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create story: expected 201, got %d", status)
	}
	storyID := story["id"].(string)

	status, task := doJSON(t, app, http.MethodPost, "/api/v1/stories/"+storyID+"/tasks", map[string]any{
		"title":          "Build product grid",
		"estimatedHours": 8,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create task: expected 201, got %d", status)
	}
	if task["status"] != "TODO" {
		t.Errorf("expected default TODO status, got %v", task["status"])
	}

	// The detail endpoint assembles the whole tree.
	status, detail := doJSON(t, app, http.MethodGet, "/api/v1/projects/"+projectID+"/detail", nil)
	if status != fiber.StatusOK {
		t.Fatalf("detail: expected 200, got %d", status)
	}
	epics := detail["epics"].([]any)
	if len(epics) != 1 {
		t.Fatalf("expected 1 epic in detail, got %d", len(epics))
	}
	storiesInEpic := epics[0].(map[string]any)["stories"].([]any)
	if len(storiesInEpic) != 1 {
		t.Fatalf("expected 1 story in detail, got %d", len(storiesInEpic))
	}
	tasksInStory := storiesInEpic[0].(map[string]any)["tasks"].([]any)
	if len(tasksInStory) != 1 {
		t.Fatalf("expected 1 task in detail, got %d", len(tasksInStory))
	}

	// Counts show up on the summary endpoint.
	status, summary := doJSON(t, app, http.MethodGet, "/api/v1/projects/"+projectID, nil)
	if status != fiber.StatusOK {
		t.Fatalf("get project: expected 200, got %d", status)
	}
	if summary["epicsCount"] != float64(1) || summary["tasksCount"] != float64(1) {
		t.Errorf("unexpected counts: %v", summary)
	}

	// Partial update leaves absent fields alone.
	status, patched := doJSON(t, app, http.MethodPatch, "/api/v1/tasks/"+task["id"].(string), map[string]any{"status": "DONE"})
	if status != fiber.StatusOK {
		t.Fatalf("patch task: expected 200, got %d", status)
	}
	if patched["status"] != "DONE" || patched["title"] != "Build product grid" {
		t.Errorf("unexpected patched task: %v", patched)
	}

	// Deleting the epic removes the subtree.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/epics/"+epicID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("delete epic: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("delete epic: expected 204, got %d", resp.StatusCode)
	}
	if status, _ := doJSON(t, app, http.MethodGet, "/api/v1/stories/"+storyID, nil); status != fiber.StatusNotFound {
		t.Errorf("expected story 404 after epic delete, got %d", status)
	}
}

func TestPutUpdatesProject(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	status, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{
		"name":        "Shop",
		"description": "An online shop",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create project: expected 201, got %d", status)
	}
	projectID := project["id"].(string)

	// PUT carries the same partial-update semantics as PATCH.
	status, updated := doJSON(t, app, http.MethodPut, "/api/v1/projects/"+projectID, map[string]any{"description": "updated"})
	if status != fiber.StatusOK {
		t.Fatalf("put project: expected 200, got %d", status)
	}
	if updated["description"] != "updated" || updated["name"] != "Shop" {
		t.Errorf("unexpected updated project: %v", updated)
	}

	if status, _ := doJSON(t, app, http.MethodPut, "/api/v1/projects/nope", map[string]any{"description": "x"}); status != fiber.StatusNotFound {
		t.Errorf("put unknown project: expected 404, got %d", status)
	}
}

func TestChatFlow(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{replies: []string{"Let's start with the catalog."}})

	_, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"})
	projectID := project["id"].(string)

	status, chat := doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/chat", map[string]any{
		"message": "Where should I start?",
	})
	if status != fiber.StatusOK {
		t.Fatalf("chat: expected 200, got %d", status)
	}
	conversationID, _ := chat["conversationId"].(string)
	if conversationID == "" {
		t.Fatal("expected a conversation id in the chat response")
	}

	status, convs := doJSONList(t, app, "/api/v1/projects/"+projectID+"/conversations")
	if status != fiber.StatusOK || len(convs) != 1 {
		t.Fatalf("expected 1 conversation, got status %d, %v", status, convs)
	}

	status, msgs := doJSONList(t, app, "/api/v1/conversations/"+conversationID+"/messages")
	if status != fiber.StatusOK {
		t.Fatalf("messages: expected 200, got %d", status)
	}
	if len(msgs) != 2 || msgs[0]["role"] != "USER" || msgs[1]["role"] != "ASSISTANT" {
		t.Fatalf("unexpected messages: %v", msgs)
	}
}

func TestChatBlankMessageRejected(t *testing.T) {
	completer := &scriptedCompleter{replies: []string{"unused"}}
	app, _ := setupTestApp(completer)

	_, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"})
	projectID := project["id"].(string)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/chat", map[string]any{"message": "  "})
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if completer.calls != 0 {
		t.Errorf("no completion call should happen for an invalid request, got %d", completer.calls)
	}
	fieldErrors := body["fieldErrors"].([]any)
	if fieldErrors[0].(map[string]any)["field"] != "message" {
		t.Errorf("expected a message field error, got %v", fieldErrors)
	}
}

func TestGenerateFlow(t *testing.T) {
	plan := `{"projectTitle":"Shop","executiveSummary":"An online shop","modules":[],"estimatedComplexity":"medium"}`
	app, _ := setupTestApp(&scriptedCompleter{replies: []string{plan, plan}})

	_, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"})
	projectID := project["id"].(string)

	status, doc := doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/generate", map[string]any{})
	if status != fiber.StatusCreated {
		t.Fatalf("generate: expected 201, got %d", status)
	}
	if doc["version"] != float64(1) {
		t.Errorf("expected version 1, got %v", doc["version"])
	}
	content := doc["content"].(map[string]any)
	if content["projectTitle"] != "Shop" {
		t.Errorf("expected parsed plan content, got %v", content)
	}

	// Second run bumps the version; latest follows it.
	status, doc = doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/generate", map[string]any{})
	if status != fiber.StatusCreated || doc["version"] != float64(2) {
		t.Fatalf("expected version 2, got status %d, %v", status, doc["version"])
	}

	status, latest := doJSON(t, app, http.MethodGet, "/api/v1/projects/"+projectID+"/specifications/latest", nil)
	if status != fiber.StatusOK || latest["version"] != float64(2) {
		t.Fatalf("latest: expected version 2, got status %d, %v", status, latest["version"])
	}

	status, docs := doJSONList(t, app, "/api/v1/projects/"+projectID+"/specifications")
	if status != fiber.StatusOK || len(docs) != 2 {
		t.Fatalf("expected 2 documents, got status %d, %d docs", status, len(docs))
	}
}

func TestAIFailureEnvelope(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{err: fmt.Errorf("upstream unavailable")})

	_, project := doJSON(t, app, http.MethodPost, "/api/v1/projects", map[string]any{"name": "Shop"})
	projectID := project["id"].(string)

	status, body := doJSON(t, app, http.MethodPost, "/api/v1/projects/"+projectID+"/chat", map[string]any{"message": "hi"})
	if status != fiber.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", status)
	}
	if body["error"] != "Service Unavailable" {
		t.Errorf("unexpected error label: %v", body["error"])
	}

	// The failed call must not have created a conversation.
	listStatus, convs := doJSONList(t, app, "/api/v1/projects/"+projectID+"/conversations")
	if listStatus != fiber.StatusOK || len(convs) != 0 {
		t.Errorf("expected no conversations after failure, got %v", convs)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	app, _ := setupTestApp(&scriptedCompleter{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", resp.StatusCode)
	}
}
