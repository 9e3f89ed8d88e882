package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the singleton projection of the latest session state. It is
// overwritten in full on every status-relevant trigger; history lives in
// the archived sessions, not here.
type Status struct {
	Phase         string
	LastSessionAt int64
	NextAction    string
	Blockers      []string
	UpdatedAt     int64
}

// PutStatus overwrites the status singleton.
func (db *DB) PutStatus(s Status) error {
	blockers, err := json.Marshal(s.Blockers)
	if err != nil {
		return fmt.Errorf("marshal blockers: %w", err)
	}
	now := time.Now().UnixMilli()
	_, err = db.Exec(`
		INSERT INTO status (id, phase, last_session_at, next_action, blockers, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			last_session_at = excluded.last_session_at,
			next_action = excluded.next_action,
			blockers = excluded.blockers,
			updated_at = excluded.updated_at
	`, s.Phase, s.LastSessionAt, s.NextAction, string(blockers), now)
	if err != nil {
		return fmt.Errorf("put status: %w", err)
	}
	return nil
}

// GetStatus returns the status singleton, or nil if it was never written.
func (db *DB) GetStatus() (*Status, error) {
	var s Status
	var blockers string
	err := db.QueryRow(`
		SELECT phase, last_session_at, next_action, blockers, updated_at FROM status WHERE id = 1
	`).Scan(&s.Phase, &s.LastSessionAt, &s.NextAction, &blockers, &s.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}
	if blockers != "" {
		if err := json.Unmarshal([]byte(blockers), &s.Blockers); err != nil {
			return nil, fmt.Errorf("unmarshal blockers: %w", err)
		}
	}
	return &s, nil
}
