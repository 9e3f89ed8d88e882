package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Concept categories. Category is a curriculum grouping and moves
// independently of difficulty; a concept can be filed under revision while
// its difficulty still reads understood.
const (
	CategoryCore         = "core"
	CategoryIntermediate = "intermediate"
	CategoryAdvanced     = "advanced"
	CategoryRevision     = "revision"
)

// Concept difficulty states. Transitions are owned by the tracker package.
const (
	DifficultyUnreviewed = "unreviewed"
	DifficultyRevision   = "revision"
	DifficultyUnderstood = "understood"
	DifficultyMastered   = "mastered"
)

// Concept tracks one topic's difficulty state and its opaque content payload.
type Concept struct {
	ID          string
	Category    string
	Difficulty  string
	Content     string
	CreatedAt   int64
	LastUpdated int64
}

// PutConcept creates a concept or overwrites its content and state.
// Concepts are a mapping, not a log, so overwrite is allowed here; lifecycle
// rules for difficulty live in the tracker.
func (db *DB) PutConcept(c Concept) (*Concept, error) {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO concepts (id, category, difficulty, content, created_at, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			category = excluded.category,
			difficulty = excluded.difficulty,
			content = excluded.content,
			last_updated = excluded.last_updated
	`, c.ID, c.Category, c.Difficulty, c.Content, now, now)
	if err != nil {
		return nil, fmt.Errorf("put concept: %w", err)
	}
	c.CreatedAt = now
	c.LastUpdated = now
	return &c, nil
}

// GetConcept returns a concept by id, or nil if unknown.
func (db *DB) GetConcept(id string) (*Concept, error) {
	var c Concept
	err := db.QueryRow(`
		SELECT id, category, difficulty, content, created_at, last_updated
		FROM concepts WHERE id = ?
	`, id).Scan(&c.ID, &c.Category, &c.Difficulty, &c.Content, &c.CreatedAt, &c.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get concept: %w", err)
	}
	return &c, nil
}

// SetConceptDifficulty updates only the difficulty of an existing concept.
func (db *DB) SetConceptDifficulty(id, difficulty string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE concepts SET difficulty = ?, last_updated = ? WHERE id = ?
	`, difficulty, now, id)
	if err != nil {
		return fmt.Errorf("set concept difficulty: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no concept %s", id)
	}
	return nil
}

// SetConceptCategory reassigns a concept's category without touching
// its difficulty.
func (db *DB) SetConceptCategory(id, category string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE concepts SET category = ?, last_updated = ? WHERE id = ?
	`, category, now, id)
	if err != nil {
		return fmt.Errorf("set concept category: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no concept %s", id)
	}
	return nil
}

// ListConceptsByCategory returns concepts in a category, oldest first.
func (db *DB) ListConceptsByCategory(category string) ([]Concept, error) {
	rows, err := db.Query(`
		SELECT id, category, difficulty, content, created_at, last_updated
		FROM concepts WHERE category = ? ORDER BY created_at, id
	`, category)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	defer rows.Close()
	return scanConcepts(rows)
}

// ListConceptsByDifficulty returns concepts in a difficulty state, oldest first.
func (db *DB) ListConceptsByDifficulty(difficulty string) ([]Concept, error) {
	rows, err := db.Query(`
		SELECT id, category, difficulty, content, created_at, last_updated
		FROM concepts WHERE difficulty = ? ORDER BY created_at, id
	`, difficulty)
	if err != nil {
		return nil, fmt.Errorf("list concepts: %w", err)
	}
	defer rows.Close()
	return scanConcepts(rows)
}

func scanConcepts(rows *sql.Rows) ([]Concept, error) {
	var concepts []Concept
	for rows.Next() {
		var c Concept
		if err := rows.Scan(&c.ID, &c.Category, &c.Difficulty, &c.Content, &c.CreatedAt, &c.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan concept: %w", err)
		}
		concepts = append(concepts, c)
	}
	return concepts, rows.Err()
}
