package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
//
// Version 1 reproduces the layout of the pre-Go deployment exactly so
// an existing tasks.db keeps working: tasks(id, user_id, name, status,
// created_date) and user_states(user_id, state).
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id      INTEGER NOT NULL,
	name         TEXT NOT NULL,
	status       TEXT NOT NULL DEFAULT 'pending',
	created_date TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS user_states (
	user_id INTEGER PRIMARY KEY,
	state   TEXT
);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE tasks ADD COLUMN completed_at TEXT;

CREATE INDEX IF NOT EXISTS idx_tasks_user_id ON tasks(user_id);
CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
