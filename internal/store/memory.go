package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"planai/internal/apperr"
	"planai/internal/models"
)

// MemoryStore is an in-process Store used by tests and driverless local
// runs. It mirrors the relational cascades explicitly: deleting a parent
// removes every descendant row.
type MemoryStore struct {
	mu sync.RWMutex

	projects      map[string]models.Project
	epics         map[string]models.Epic
	stories       map[string]models.UserStory
	tasks         map[string]models.Task
	conversations map[string]models.Conversation
	messages      map[string]models.Message
	specDocs      map[string]models.SpecDocument

	// seq breaks creation-time ties so ordering stays deterministic.
	seq   int64
	seqOf map[string]int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects:      make(map[string]models.Project),
		epics:         make(map[string]models.Epic),
		stories:       make(map[string]models.UserStory),
		tasks:         make(map[string]models.Task),
		conversations: make(map[string]models.Conversation),
		messages:      make(map[string]models.Message),
		specDocs:      make(map[string]models.SpecDocument),
		seqOf:         make(map[string]int64),
	}
}

// Close is a no-op; MemoryStore holds no external resources.
func (m *MemoryStore) Close() {}

func (m *MemoryStore) nextSeq(id string) {
	m.seq++
	m.seqOf[id] = m.seq
}

// --- Projects ---

func (m *MemoryStore) CreateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.projects {
		if strings.EqualFold(existing.Name, p.Name) {
			return apperr.NewConflict("project with name %q already exists", p.Name)
		}
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now().UTC()
	p.Epics = nil
	m.projects[p.ID] = *p
	m.nextSeq(p.ID)
	return nil
}

func (m *MemoryStore) ListProjects(_ context.Context) ([]models.ProjectWithCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ProjectWithCounts, 0, len(m.projects))
	for id, p := range m.projects {
		out = append(out, models.ProjectWithCounts{Project: p, Counts: m.countsLocked(id)})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Project, out[j].Project
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return m.seqOf[a.ID] > m.seqOf[b.ID]
	})
	return out, nil
}

func (m *MemoryStore) countsLocked(projectID string) models.ProjectCounts {
	var c models.ProjectCounts
	for _, e := range m.epics {
		if e.ProjectID != projectID {
			continue
		}
		c.Epics++
		for _, s := range m.stories {
			if s.EpicID != e.ID {
				continue
			}
			c.Stories++
			for _, t := range m.tasks {
				if t.StoryID == s.ID {
					c.Tasks++
				}
			}
		}
	}
	for _, conv := range m.conversations {
		if conv.ProjectID == projectID {
			c.Conversations++
		}
	}
	return c
}

func (m *MemoryStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.NewNotFound("Project", id)
	}
	return &p, nil
}

func (m *MemoryStore) GetProjectWithCounts(_ context.Context, id string) (*models.ProjectWithCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.NewNotFound("Project", id)
	}
	return &models.ProjectWithCounts{Project: p, Counts: m.countsLocked(id)}, nil
}

func (m *MemoryStore) GetProjectDetail(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, apperr.NewNotFound("Project", id)
	}
	p.Epics = m.epicsForLocked(id, true)
	return &p, nil
}

func (m *MemoryStore) epicsForLocked(projectID string, withChildren bool) []models.Epic {
	epics := make([]models.Epic, 0)
	for _, e := range m.epics {
		if e.ProjectID != projectID {
			continue
		}
		if withChildren {
			e.Stories = m.storiesForLocked(e.ID, true)
		}
		epics = append(epics, e)
	}
	sortEpics(epics)
	return epics
}

func (m *MemoryStore) storiesForLocked(epicID string, withChildren bool) []models.UserStory {
	stories := make([]models.UserStory, 0)
	for _, s := range m.stories {
		if s.EpicID != epicID {
			continue
		}
		if withChildren {
			s.Tasks = m.tasksForLocked(s.ID)
		}
		stories = append(stories, s)
	}
	sort.Slice(stories, func(i, j int) bool {
		if stories[i].OrderIndex != stories[j].OrderIndex {
			return stories[i].OrderIndex < stories[j].OrderIndex
		}
		return stories[i].ID < stories[j].ID
	})
	return stories
}

func (m *MemoryStore) tasksForLocked(storyID string) []models.Task {
	tasks := make([]models.Task, 0)
	for _, t := range m.tasks {
		if t.StoryID == storyID {
			tasks = append(tasks, t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].OrderIndex != tasks[j].OrderIndex {
			return tasks[i].OrderIndex < tasks[j].OrderIndex
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks
}

func sortEpics(epics []models.Epic) {
	sort.Slice(epics, func(i, j int) bool {
		if epics[i].OrderIndex != epics[j].OrderIndex {
			return epics[i].OrderIndex < epics[j].OrderIndex
		}
		return epics[i].ID < epics[j].ID
	})
}

func (m *MemoryStore) UpdateProject(_ context.Context, p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.projects[p.ID]
	if !ok {
		return apperr.NewNotFound("Project", p.ID)
	}
	for id, existing := range m.projects {
		if id != p.ID && strings.EqualFold(existing.Name, p.Name) {
			return apperr.NewConflict("project with name %q already exists", p.Name)
		}
	}
	stored.Name = p.Name
	stored.Description = p.Description
	m.projects[p.ID] = stored
	return nil
}

func (m *MemoryStore) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[id]; !ok {
		return apperr.NewNotFound("Project", id)
	}
	for eid, e := range m.epics {
		if e.ProjectID == id {
			m.deleteEpicLocked(eid)
		}
	}
	for cid, c := range m.conversations {
		if c.ProjectID == id {
			m.deleteConversationLocked(cid)
		}
	}
	for did, d := range m.specDocs {
		if d.ProjectID == id {
			delete(m.specDocs, did)
		}
	}
	delete(m.projects, id)
	return nil
}

// --- Epics ---

func (m *MemoryStore) CreateEpic(_ context.Context, e *models.Epic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[e.ProjectID]; !ok {
		return apperr.NewNotFound("Project", e.ProjectID)
	}
	e.ID = uuid.NewString()
	e.Stories = nil
	m.epics[e.ID] = *e
	m.nextSeq(e.ID)
	return nil
}

func (m *MemoryStore) ListEpics(_ context.Context, projectID string) ([]models.Epic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epicsForLocked(projectID, false), nil
}

func (m *MemoryStore) GetEpic(_ context.Context, id string) (*models.Epic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.epics[id]
	if !ok {
		return nil, apperr.NewNotFound("Epic", id)
	}
	return &e, nil
}

func (m *MemoryStore) GetEpicDetail(_ context.Context, id string) (*models.Epic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.epics[id]
	if !ok {
		return nil, apperr.NewNotFound("Epic", id)
	}
	e.Stories = m.storiesForLocked(id, true)
	return &e, nil
}

func (m *MemoryStore) UpdateEpic(_ context.Context, e *models.Epic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.epics[e.ID]
	if !ok {
		return apperr.NewNotFound("Epic", e.ID)
	}
	stored.Title = e.Title
	stored.Description = e.Description
	stored.Priority = e.Priority
	stored.Status = e.Status
	stored.OrderIndex = e.OrderIndex
	m.epics[e.ID] = stored
	return nil
}

func (m *MemoryStore) DeleteEpic(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.epics[id]; !ok {
		return apperr.NewNotFound("Epic", id)
	}
	m.deleteEpicLocked(id)
	return nil
}

func (m *MemoryStore) deleteEpicLocked(id string) {
	for sid, s := range m.stories {
		if s.EpicID == id {
			m.deleteStoryLocked(sid)
		}
	}
	delete(m.epics, id)
}

// --- User stories ---

func (m *MemoryStore) CreateStory(_ context.Context, s *models.UserStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.epics[s.EpicID]; !ok {
		return apperr.NewNotFound("Epic", s.EpicID)
	}
	s.ID = uuid.NewString()
	s.Tasks = nil
	m.stories[s.ID] = *s
	m.nextSeq(s.ID)
	return nil
}

func (m *MemoryStore) ListStories(_ context.Context, epicID string) ([]models.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.storiesForLocked(epicID, false), nil
}

func (m *MemoryStore) GetStory(_ context.Context, id string) (*models.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, apperr.NewNotFound("UserStory", id)
	}
	return &s, nil
}

func (m *MemoryStore) GetStoryDetail(_ context.Context, id string) (*models.UserStory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stories[id]
	if !ok {
		return nil, apperr.NewNotFound("UserStory", id)
	}
	s.Tasks = m.tasksForLocked(id)
	return &s, nil
}

func (m *MemoryStore) UpdateStory(_ context.Context, s *models.UserStory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.stories[s.ID]
	if !ok {
		return apperr.NewNotFound("UserStory", s.ID)
	}
	stored.Title = s.Title
	stored.AsA = s.AsA
	stored.IWant = s.IWant
	stored.SoThat = s.SoThat
	stored.Priority = s.Priority
	stored.Status = s.Status
	stored.OrderIndex = s.OrderIndex
	m.stories[s.ID] = stored
	return nil
}

func (m *MemoryStore) DeleteStory(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[id]; !ok {
		return apperr.NewNotFound("UserStory", id)
	}
	m.deleteStoryLocked(id)
	return nil
}

func (m *MemoryStore) deleteStoryLocked(id string) {
	for tid, t := range m.tasks {
		if t.StoryID == id {
			delete(m.tasks, tid)
		}
	}
	delete(m.stories, id)
}

// --- Tasks ---

func (m *MemoryStore) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stories[t.StoryID]; !ok {
		return apperr.NewNotFound("UserStory", t.StoryID)
	}
	t.ID = uuid.NewString()
	m.tasks[t.ID] = *t
	m.nextSeq(t.ID)
	return nil
}

func (m *MemoryStore) ListTasks(_ context.Context, storyID string) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tasksForLocked(storyID), nil
}

func (m *MemoryStore) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, apperr.NewNotFound("Task", id)
	}
	return &t, nil
}

func (m *MemoryStore) UpdateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tasks[t.ID]
	if !ok {
		return apperr.NewNotFound("Task", t.ID)
	}
	stored.Title = t.Title
	stored.Description = t.Description
	stored.Status = t.Status
	stored.EstimatedHours = t.EstimatedHours
	stored.OrderIndex = t.OrderIndex
	m.tasks[t.ID] = stored
	return nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[id]; !ok {
		return apperr.NewNotFound("Task", id)
	}
	delete(m.tasks, id)
	return nil
}

// --- Conversations and messages ---

func (m *MemoryStore) CreateConversation(_ context.Context, c *models.Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[c.ProjectID]; !ok {
		return apperr.NewNotFound("Project", c.ProjectID)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = time.Now().UTC()
	m.conversations[c.ID] = *c
	m.nextSeq(c.ID)
	return nil
}

func (m *MemoryStore) GetConversation(_ context.Context, id string) (*models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conversations[id]
	if !ok {
		return nil, apperr.NewNotFound("Conversation", id)
	}
	return &c, nil
}

func (m *MemoryStore) ListConversations(_ context.Context, projectID string) ([]models.Conversation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Conversation, 0)
	for _, c := range m.conversations {
		if c.ProjectID == projectID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return m.seqOf[out[i].ID] > m.seqOf[out[j].ID]
	})
	return out, nil
}

func (m *MemoryStore) ListMessages(_ context.Context, conversationID string) ([]models.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.conversations[conversationID]; !ok {
		return nil, apperr.NewNotFound("Conversation", conversationID)
	}
	out := make([]models.Message, 0)
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return m.seqOf[out[i].ID] < m.seqOf[out[j].ID]
	})
	return out, nil
}

func (m *MemoryStore) AppendExchange(_ context.Context, conversationID string, userMsg, assistantMsg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.conversations[conversationID]; !ok {
		return apperr.NewNotFound("Conversation", conversationID)
	}
	now := time.Now().UTC()
	for _, msg := range []*models.Message{userMsg, assistantMsg} {
		msg.ID = uuid.NewString()
		msg.ConversationID = conversationID
		msg.CreatedAt = now
		m.messages[msg.ID] = *msg
		m.nextSeq(msg.ID)
	}
	return nil
}

func (m *MemoryStore) deleteConversationLocked(id string) {
	for mid, msg := range m.messages {
		if msg.ConversationID == id {
			delete(m.messages, mid)
		}
	}
	delete(m.conversations, id)
}

// --- Specification documents ---

func (m *MemoryStore) CreateSpecDocument(_ context.Context, d *models.SpecDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.projects[d.ProjectID]; !ok {
		return apperr.NewNotFound("Project", d.ProjectID)
	}
	version := 1
	for _, existing := range m.specDocs {
		if existing.ProjectID == d.ProjectID {
			version++
		}
	}
	d.ID = uuid.NewString()
	d.Version = version
	d.CreatedAt = time.Now().UTC()
	m.specDocs[d.ID] = *d
	m.nextSeq(d.ID)
	return nil
}

func (m *MemoryStore) ListSpecDocuments(_ context.Context, projectID string) ([]models.SpecDocument, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.SpecDocument, 0)
	for _, d := range m.specDocs {
		if d.ProjectID == projectID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version > out[j].Version })
	return out, nil
}

func (m *MemoryStore) LatestSpecDocument(_ context.Context, projectID string) (*models.SpecDocument, error) {
	docs, _ := m.ListSpecDocuments(context.Background(), projectID)
	if len(docs) == 0 {
		return nil, apperr.NewNotFound("SpecDocument", projectID)
	}
	return &docs[0], nil
}
