package postgres

// schema is applied on startup. UUID keys default server-side; every
// parent/child edge carries ON DELETE CASCADE so deleting an aggregate root
// removes its whole subtree in one statement.
const schema = `
CREATE EXTENSION IF NOT EXISTS pgcrypto;

CREATE TABLE IF NOT EXISTS projects (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	name        VARCHAR(100) NOT NULL,
	description VARCHAR(500),
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
-- Name uniqueness is case-insensitive: "shop" collides with "Shop".
CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_name_ci ON projects(lower(name));

CREATE TABLE IF NOT EXISTS epics (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id  UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       VARCHAR(150) NOT NULL,
	description VARCHAR(1000),
	priority    VARCHAR(10) NOT NULL DEFAULT 'MEDIUM',
	status      VARCHAR(15) NOT NULL DEFAULT 'TODO',
	order_index INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_epics_project ON epics(project_id, order_index);

CREATE TABLE IF NOT EXISTS user_stories (
	id          UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	epic_id     UUID NOT NULL REFERENCES epics(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	as_a        VARCHAR(500),
	i_want      VARCHAR(500),
	so_that     VARCHAR(500),
	priority    VARCHAR(10) NOT NULL DEFAULT 'MEDIUM',
	status      VARCHAR(15) NOT NULL DEFAULT 'TODO',
	order_index INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_stories_epic ON user_stories(epic_id, order_index);

CREATE TABLE IF NOT EXISTS tasks (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	story_id        UUID NOT NULL REFERENCES user_stories(id) ON DELETE CASCADE,
	title           TEXT NOT NULL,
	description     TEXT,
	status          VARCHAR(15) NOT NULL DEFAULT 'TODO',
	estimated_hours INTEGER,
	order_index     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_tasks_story ON tasks(story_id, order_index);

CREATE TABLE IF NOT EXISTS conversations (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_conversations_project ON conversations(project_id);

-- seq disambiguates messages inserted in the same transaction, where
-- now() yields identical created_at values for both turns of an exchange.
CREATE TABLE IF NOT EXISTS messages (
	id              UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	seq             BIGSERIAL,
	role            VARCHAR(10) NOT NULL,
	content         TEXT NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at, seq);

CREATE TABLE IF NOT EXISTS spec_documents (
	id         UUID PRIMARY KEY DEFAULT gen_random_uuid(),
	project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	version    INTEGER NOT NULL,
	content    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT spec_documents_project_version_key UNIQUE (project_id, version)
);
`
