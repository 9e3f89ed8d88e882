package store

import (
	"fmt"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "sessions: active session plus archived history",
		SQL: `
CREATE TABLE sessions (
    id             INTEGER PRIMARY KEY,
    phase          TEXT NOT NULL DEFAULT 'initial',
    status         TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'archived')),
    archive_key    TEXT UNIQUE,
    summary        TEXT,
    started_at     INTEGER NOT NULL,
    archived_at    INTEGER
);

CREATE INDEX idx_sessions_status      ON sessions(status);
CREATE INDEX idx_sessions_archived_at ON sessions(archived_at DESC);

CREATE TABLE session_goals (
    id             INTEGER PRIMARY KEY,
    session_id     INTEGER NOT NULL,
    position       INTEGER NOT NULL,
    text           TEXT NOT NULL,
    done           INTEGER NOT NULL DEFAULT 0,

    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX idx_goals_session ON session_goals(session_id, position);

CREATE TABLE session_log (
    id             INTEGER PRIMARY KEY,
    session_id     INTEGER NOT NULL,
    entry          TEXT NOT NULL,
    created_at     INTEGER NOT NULL,

    FOREIGN KEY (session_id) REFERENCES sessions(id)
);

CREATE INDEX idx_log_session ON session_log(session_id, id);
`,
	},
	{
		Version:     2,
		Description: "status: singleton projection of the latest session state",
		SQL: `
CREATE TABLE status (
    id              INTEGER PRIMARY KEY CHECK (id = 1),
    phase           TEXT NOT NULL,
    last_session_at INTEGER,
    next_action     TEXT,
    blockers        TEXT,
    updated_at      INTEGER NOT NULL
);
`,
	},
	{
		Version:     3,
		Description: "decisions: append-only decision log",
		SQL: `
CREATE TABLE decisions (
    id             TEXT PRIMARY KEY,
    description    TEXT NOT NULL,
    rationale      TEXT,
    created_at     INTEGER NOT NULL
);

CREATE INDEX idx_decisions_created ON decisions(created_at);
`,
	},
	{
		Version:     4,
		Description: "concepts: per-topic difficulty tracking",
		SQL: `
CREATE TABLE concepts (
    id             TEXT PRIMARY KEY,
    category       TEXT NOT NULL CHECK (category IN ('core', 'intermediate', 'advanced', 'revision')),
    difficulty     TEXT NOT NULL CHECK (difficulty IN ('unreviewed', 'revision', 'understood', 'mastered')),
    content        TEXT,
    created_at     INTEGER NOT NULL,
    last_updated   INTEGER NOT NULL
);

CREATE INDEX idx_concepts_category   ON concepts(category);
CREATE INDEX idx_concepts_difficulty ON concepts(difficulty);
`,
	},
	{
		Version:     5,
		Description: "questions: open questions with single pending->resolved transition",
		SQL: `
CREATE TABLE questions (
    id             TEXT PRIMARY KEY,
    text           TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'resolved')),
    resolution     TEXT,
    created_at     INTEGER NOT NULL,
    resolved_at    INTEGER
);

CREATE INDEX idx_questions_status ON questions(status);
`,
	},
}

func (db *DB) migrate() error {
	// Create schema_versions table if it doesn't exist
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_versions (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  INTEGER NOT NULL DEFAULT (strftime('%s', 'now') * 1000)
		)
	`)
	if err != nil {
		return fmt.Errorf("create schema_versions: %w", err)
	}

	for _, m := range migrations {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM schema_versions WHERE version = ?", m.Version).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}
		if count > 0 {
			continue
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_versions (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

// SchemaVersion returns the current schema version.
func (db *DB) SchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_versions").Scan(&version)
	return version, err
}
