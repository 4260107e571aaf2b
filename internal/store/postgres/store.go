// Package postgres implements store.Store against PostgreSQL via pgx.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"planai/internal/apperr"
	"planai/internal/models"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// Store implements store.Store using a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL, configures the pool and applies the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 25
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 5 * time.Minute
	cfg.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

// --- Projects ---

func (s *Store) CreateProject(ctx context.Context, p *models.Project) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO projects (name, description)
		 VALUES ($1, NULLIF($2, ''))
		 RETURNING id, created_at`,
		p.Name, p.Description)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return apperr.NewConflict("project with name %q already exists", p.Name)
		}
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]models.ProjectWithCounts, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.id, p.name, COALESCE(p.description, ''), p.created_at,
		        (SELECT count(*) FROM epics e WHERE e.project_id = p.id),
		        (SELECT count(*) FROM user_stories us JOIN epics e ON us.epic_id = e.id WHERE e.project_id = p.id),
		        (SELECT count(*) FROM tasks t JOIN user_stories us ON t.story_id = us.id JOIN epics e ON us.epic_id = e.id WHERE e.project_id = p.id),
		        (SELECT count(*) FROM conversations c WHERE c.project_id = p.id)
		 FROM projects p
		 ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var out []models.ProjectWithCounts
	for rows.Next() {
		var pc models.ProjectWithCounts
		if err := rows.Scan(&pc.Project.ID, &pc.Project.Name, &pc.Project.Description, &pc.Project.CreatedAt,
			&pc.Counts.Epics, &pc.Counts.Stories, &pc.Counts.Tasks, &pc.Counts.Conversations); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}

func (s *Store) GetProject(ctx context.Context, id string) (*models.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, COALESCE(description, ''), created_at FROM projects WHERE id = $1`, id)
	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("Project", id)
		}
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
}

func (s *Store) GetProjectWithCounts(ctx context.Context, id string) (*models.ProjectWithCounts, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT p.id, p.name, COALESCE(p.description, ''), p.created_at,
		        (SELECT count(*) FROM epics e WHERE e.project_id = p.id),
		        (SELECT count(*) FROM user_stories us JOIN epics e ON us.epic_id = e.id WHERE e.project_id = p.id),
		        (SELECT count(*) FROM tasks t JOIN user_stories us ON t.story_id = us.id JOIN epics e ON us.epic_id = e.id WHERE e.project_id = p.id),
		        (SELECT count(*) FROM conversations c WHERE c.project_id = p.id)
		 FROM projects p WHERE p.id = $1`, id)
	var pc models.ProjectWithCounts
	if err := row.Scan(&pc.Project.ID, &pc.Project.Name, &pc.Project.Description, &pc.Project.CreatedAt,
		&pc.Counts.Epics, &pc.Counts.Stories, &pc.Counts.Tasks, &pc.Counts.Conversations); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("Project", id)
		}
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &pc, nil
}

func (s *Store) GetProjectDetail(ctx context.Context, id string) (*models.Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	epics, err := s.ListEpics(ctx, id)
	if err != nil {
		return nil, err
	}
	epicIdx := make(map[string]int, len(epics))
	epicIDs := make([]string, 0, len(epics))
	for i := range epics {
		epics[i].Stories = []models.UserStory{}
		epicIdx[epics[i].ID] = i
		epicIDs = append(epicIDs, epics[i].ID)
	}

	if len(epicIDs) > 0 {
		stories, err := s.listStoriesByEpics(ctx, epicIDs)
		if err != nil {
			return nil, err
		}
		storyIdx := make(map[string][2]int, len(stories))
		storyIDs := make([]string, 0, len(stories))
		for _, st := range stories {
			i := epicIdx[st.EpicID]
			st.Tasks = []models.Task{}
			epics[i].Stories = append(epics[i].Stories, st)
			storyIdx[st.ID] = [2]int{i, len(epics[i].Stories) - 1}
			storyIDs = append(storyIDs, st.ID)
		}
		if len(storyIDs) > 0 {
			tasks, err := s.listTasksByStories(ctx, storyIDs)
			if err != nil {
				return nil, err
			}
			for _, t := range tasks {
				pos := storyIdx[t.StoryID]
				st := &epics[pos[0]].Stories[pos[1]]
				st.Tasks = append(st.Tasks, t)
			}
		}
	}

	p.Epics = epics
	return p, nil
}

func (s *Store) UpdateProject(ctx context.Context, p *models.Project) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET name = $2, description = NULLIF($3, '') WHERE id = $1`,
		p.ID, p.Name, p.Description)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.NewConflict("project with name %q already exists", p.Name)
		}
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Project", p.ID)
	}
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Project", id)
	}
	return nil
}

// --- Epics ---

const epicColumns = `id, project_id, title, COALESCE(description, ''), priority, status, order_index`

func scanEpic(row pgx.Row) (models.Epic, error) {
	var e models.Epic
	err := row.Scan(&e.ID, &e.ProjectID, &e.Title, &e.Description, &e.Priority, &e.Status, &e.OrderIndex)
	return e, err
}

func (s *Store) CreateEpic(ctx context.Context, e *models.Epic) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO epics (project_id, title, description, priority, status, order_index)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING id`,
		e.ProjectID, e.Title, e.Description, e.Priority, e.Status, e.OrderIndex)
	if err := row.Scan(&e.ID); err != nil {
		if isFKViolation(err) {
			return apperr.NewNotFound("Project", e.ProjectID)
		}
		return fmt.Errorf("create epic: %w", err)
	}
	return nil
}

func (s *Store) ListEpics(ctx context.Context, projectID string) ([]models.Epic, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+epicColumns+` FROM epics WHERE project_id = $1 ORDER BY order_index, id`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list epics: %w", err)
	}
	defer rows.Close()

	var epics []models.Epic
	for rows.Next() {
		e, err := scanEpic(rows)
		if err != nil {
			return nil, fmt.Errorf("scan epic: %w", err)
		}
		epics = append(epics, e)
	}
	return epics, rows.Err()
}

func (s *Store) GetEpic(ctx context.Context, id string) (*models.Epic, error) {
	e, err := scanEpic(s.pool.QueryRow(ctx,
		`SELECT `+epicColumns+` FROM epics WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("Epic", id)
		}
		return nil, fmt.Errorf("get epic %s: %w", id, err)
	}
	return &e, nil
}

func (s *Store) GetEpicDetail(ctx context.Context, id string) (*models.Epic, error) {
	e, err := s.GetEpic(ctx, id)
	if err != nil {
		return nil, err
	}
	stories, err := s.ListStories(ctx, id)
	if err != nil {
		return nil, err
	}
	storyIdx := make(map[string]int, len(stories))
	storyIDs := make([]string, 0, len(stories))
	for i := range stories {
		stories[i].Tasks = []models.Task{}
		storyIdx[stories[i].ID] = i
		storyIDs = append(storyIDs, stories[i].ID)
	}
	if len(storyIDs) > 0 {
		tasks, err := s.listTasksByStories(ctx, storyIDs)
		if err != nil {
			return nil, err
		}
		for _, t := range tasks {
			i := storyIdx[t.StoryID]
			stories[i].Tasks = append(stories[i].Tasks, t)
		}
	}
	e.Stories = stories
	return e, nil
}

func (s *Store) UpdateEpic(ctx context.Context, e *models.Epic) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE epics SET title = $2, description = NULLIF($3, ''), priority = $4, status = $5, order_index = $6
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.Priority, e.Status, e.OrderIndex)
	if err != nil {
		return fmt.Errorf("update epic %s: %w", e.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Epic", e.ID)
	}
	return nil
}

func (s *Store) DeleteEpic(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM epics WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete epic %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Epic", id)
	}
	return nil
}

// --- User stories ---

const storyColumns = `id, epic_id, title, COALESCE(as_a, ''), COALESCE(i_want, ''), COALESCE(so_that, ''), priority, status, order_index`

func scanStory(row pgx.Row) (models.UserStory, error) {
	var st models.UserStory
	err := row.Scan(&st.ID, &st.EpicID, &st.Title, &st.AsA, &st.IWant, &st.SoThat, &st.Priority, &st.Status, &st.OrderIndex)
	return st, err
}

func (s *Store) CreateStory(ctx context.Context, st *models.UserStory) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO user_stories (epic_id, title, as_a, i_want, so_that, priority, status, order_index)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		 RETURNING id`,
		st.EpicID, st.Title, st.AsA, st.IWant, st.SoThat, st.Priority, st.Status, st.OrderIndex)
	if err := row.Scan(&st.ID); err != nil {
		if isFKViolation(err) {
			return apperr.NewNotFound("Epic", st.EpicID)
		}
		return fmt.Errorf("create story: %w", err)
	}
	return nil
}

func (s *Store) ListStories(ctx context.Context, epicID string) ([]models.UserStory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+storyColumns+` FROM user_stories WHERE epic_id = $1 ORDER BY order_index, id`, epicID)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()
	return collectStories(rows)
}

func (s *Store) listStoriesByEpics(ctx context.Context, epicIDs []string) ([]models.UserStory, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+storyColumns+` FROM user_stories WHERE epic_id = ANY($1) ORDER BY order_index, id`, epicIDs)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()
	return collectStories(rows)
}

func collectStories(rows pgx.Rows) ([]models.UserStory, error) {
	var stories []models.UserStory
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

func (s *Store) GetStory(ctx context.Context, id string) (*models.UserStory, error) {
	st, err := scanStory(s.pool.QueryRow(ctx,
		`SELECT `+storyColumns+` FROM user_stories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("UserStory", id)
		}
		return nil, fmt.Errorf("get story %s: %w", id, err)
	}
	return &st, nil
}

func (s *Store) GetStoryDetail(ctx context.Context, id string) (*models.UserStory, error) {
	st, err := s.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.ListTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	st.Tasks = tasks
	return st, nil
}

func (s *Store) UpdateStory(ctx context.Context, st *models.UserStory) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE user_stories
		 SET title = $2, as_a = NULLIF($3, ''), i_want = NULLIF($4, ''), so_that = NULLIF($5, ''),
		     priority = $6, status = $7, order_index = $8
		 WHERE id = $1`,
		st.ID, st.Title, st.AsA, st.IWant, st.SoThat, st.Priority, st.Status, st.OrderIndex)
	if err != nil {
		return fmt.Errorf("update story %s: %w", st.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("UserStory", st.ID)
	}
	return nil
}

func (s *Store) DeleteStory(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM user_stories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete story %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("UserStory", id)
	}
	return nil
}

// --- Tasks ---

const taskColumns = `id, story_id, title, COALESCE(description, ''), status, estimated_hours, order_index`

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	err := row.Scan(&t.ID, &t.StoryID, &t.Title, &t.Description, &t.Status, &t.EstimatedHours, &t.OrderIndex)
	return t, err
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO tasks (story_id, title, description, status, estimated_hours, order_index)
		 VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		 RETURNING id`,
		t.StoryID, t.Title, t.Description, t.Status, t.EstimatedHours, t.OrderIndex)
	if err := row.Scan(&t.ID); err != nil {
		if isFKViolation(err) {
			return apperr.NewNotFound("UserStory", t.StoryID)
		}
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (s *Store) ListTasks(ctx context.Context, storyID string) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE story_id = $1 ORDER BY order_index, id`, storyID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func (s *Store) listTasksByStories(ctx context.Context, storyIDs []string) ([]models.Task, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE story_id = ANY($1) ORDER BY order_index, id`, storyIDs)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	return collectTasks(rows)
}

func collectTasks(rows pgx.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, id string) (*models.Task, error) {
	t, err := scanTask(s.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("Task", id)
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *models.Task) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $2, description = NULLIF($3, ''), status = $4, estimated_hours = $5, order_index = $6
		 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Status, t.EstimatedHours, t.OrderIndex)
	if err != nil {
		return fmt.Errorf("update task %s: %w", t.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Task", t.ID)
	}
	return nil
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NewNotFound("Task", id)
	}
	return nil
}

// --- Conversations and messages ---

func (s *Store) CreateConversation(ctx context.Context, c *models.Conversation) error {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO conversations (project_id) VALUES ($1) RETURNING id, created_at`, c.ProjectID)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		if isFKViolation(err) {
			return apperr.NewNotFound("Project", c.ProjectID)
		}
		return fmt.Errorf("create conversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id string) (*models.Conversation, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, created_at FROM conversations WHERE id = $1`, id)
	var c models.Conversation
	if err := row.Scan(&c.ID, &c.ProjectID, &c.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("Conversation", id)
		}
		return nil, fmt.Errorf("get conversation %s: %w", id, err)
	}
	return &c, nil
}

func (s *Store) ListConversations(ctx context.Context, projectID string) ([]models.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, created_at FROM conversations
		 WHERE project_id = $1 ORDER BY created_at DESC, id DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.ID, &c.ProjectID, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) ListMessages(ctx context.Context, conversationID string) ([]models.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = $1 ORDER BY created_at, seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// AppendExchange inserts the user/assistant pair in a single transaction so
// a half-written exchange never becomes visible.
func (s *Store) AppendExchange(ctx context.Context, conversationID string, userMsg, assistantMsg *models.Message) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin exchange: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`, conversationID).Scan(&exists); err != nil {
		return fmt.Errorf("check conversation: %w", err)
	}
	if !exists {
		return apperr.NewNotFound("Conversation", conversationID)
	}

	for _, msg := range []*models.Message{userMsg, assistantMsg} {
		msg.ConversationID = conversationID
		row := tx.QueryRow(ctx,
			`INSERT INTO messages (conversation_id, role, content)
			 VALUES ($1, $2, $3) RETURNING id, created_at`,
			conversationID, msg.Role, msg.Content)
		if err := row.Scan(&msg.ID, &msg.CreatedAt); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit exchange: %w", err)
	}
	return nil
}

// --- Specification documents ---

// CreateSpecDocument assigns the next version inside a transaction; the
// (project_id, version) unique constraint backstops concurrent generators.
func (s *Store) CreateSpecDocument(ctx context.Context, d *models.SpecDocument) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin spec document: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, d.ProjectID).Scan(&exists); err != nil {
		return fmt.Errorf("check project: %w", err)
	}
	if !exists {
		return apperr.NewNotFound("Project", d.ProjectID)
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO spec_documents (project_id, version, content)
		 SELECT $1, COALESCE(max(version), 0) + 1, $2::jsonb FROM spec_documents WHERE project_id = $1
		 RETURNING id, version, created_at`,
		d.ProjectID, d.Content)
	if err := row.Scan(&d.ID, &d.Version, &d.CreatedAt); err != nil {
		return fmt.Errorf("insert spec document: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit spec document: %w", err)
	}
	return nil
}

func (s *Store) ListSpecDocuments(ctx context.Context, projectID string) ([]models.SpecDocument, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, version, content::text, created_at FROM spec_documents
		 WHERE project_id = $1 ORDER BY version DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list spec documents: %w", err)
	}
	defer rows.Close()

	var out []models.SpecDocument
	for rows.Next() {
		var d models.SpecDocument
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Version, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan spec document: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) LatestSpecDocument(ctx context.Context, projectID string) (*models.SpecDocument, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, version, content::text, created_at FROM spec_documents
		 WHERE project_id = $1 ORDER BY version DESC LIMIT 1`, projectID)
	var d models.SpecDocument
	if err := row.Scan(&d.ID, &d.ProjectID, &d.Version, &d.Content, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NewNotFound("SpecDocument", projectID)
		}
		return nil, fmt.Errorf("latest spec document %s: %w", projectID, err)
	}
	return &d, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}
