package store

import (
	"fmt"
	"time"
)

// Decision is one approved decision. The decisions table is an append-only
// log: records are created once and never edited.
type Decision struct {
	ID          string
	Description string
	Rationale   string
	CreatedAt   int64
}

// AddDecision appends a decision to the log. Writing to an existing id
// returns ErrInvalidTransition.
func (db *DB) AddDecision(id, description, rationale string) (*Decision, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM decisions WHERE id = ?`, id).Scan(&count); err != nil {
		return nil, fmt.Errorf("check decision: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("decision %s already recorded: %w", id, ErrInvalidTransition)
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO decisions (id, description, rationale, created_at) VALUES (?, ?, ?, ?)
	`, id, description, rationale, now)
	if err != nil {
		return nil, fmt.Errorf("add decision: %w", err)
	}
	return &Decision{ID: id, Description: description, Rationale: rationale, CreatedAt: now}, nil
}

// Decisions returns the decision log in insertion order.
func (db *DB) Decisions() ([]Decision, error) {
	rows, err := db.Query(`
		SELECT id, description, rationale, created_at FROM decisions ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.Description, &d.Rationale, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, rows.Err()
}
