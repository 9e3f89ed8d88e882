package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Session phases, ordered. A session's phase never moves backwards, and it
// survives archiving: the replacement session starts in the phase the
// archived one ended in.
const (
	PhaseInitial   = "initial"
	PhasePlanning  = "planning"
	PhaseBuilding  = "building"
	PhaseReviewing = "reviewing"
)

var phaseRank = map[string]int{
	PhaseInitial:   0,
	PhasePlanning:  1,
	PhaseBuilding:  2,
	PhaseReviewing: 3,
}

// Session represents one working session with the assistant.
type Session struct {
	ID         int64
	Phase      string
	Status     string
	ArchiveKey *string
	Summary    *string
	StartedAt  int64
	ArchivedAt *int64
}

// Goal is a single entry in a session's goal list.
type Goal struct {
	ID        int64
	SessionID int64
	Position  int
	Text      string
	Done      bool
}

// LogEntry is one line of a session's append-only activity log.
type LogEntry struct {
	ID        int64
	SessionID int64
	Entry     string
	CreatedAt int64
}

// ActiveSession returns the current active session, or nil if none exists.
func (db *DB) ActiveSession() (*Session, error) {
	var s Session
	err := db.QueryRow(`
		SELECT id, phase, status, archive_key, summary, started_at, archived_at
		FROM sessions WHERE status = 'active'
	`).Scan(&s.ID, &s.Phase, &s.Status, &s.ArchiveKey, &s.Summary, &s.StartedAt, &s.ArchivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("active session: %w", err)
	}
	return &s, nil
}

// CreateSession creates a new active session in the given phase.
// Callers must ensure no active session exists.
func (db *DB) CreateSession(phase string) (*Session, error) {
	if _, ok := phaseRank[phase]; !ok {
		return nil, fmt.Errorf("create session: unknown phase %q: %w", phase, ErrInvalidTransition)
	}
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		INSERT INTO sessions (phase, status, started_at) VALUES (?, 'active', ?)
	`, phase, now)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	id, _ := result.LastInsertId()
	return &Session{ID: id, Phase: phase, Status: "active", StartedAt: now}, nil
}

// SetPhase advances the active session's phase. Phases are ordered and may
// only move forward; a backwards move returns ErrInvalidTransition.
func (db *DB) SetPhase(sessionID int64, phase string) error {
	newRank, ok := phaseRank[phase]
	if !ok {
		return fmt.Errorf("set phase: unknown phase %q: %w", phase, ErrInvalidTransition)
	}

	var current string
	err := db.QueryRow(`SELECT phase FROM sessions WHERE id = ? AND status = 'active'`, sessionID).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("set phase: no active session %d", sessionID)
	}
	if err != nil {
		return fmt.Errorf("set phase: %w", err)
	}
	if newRank < phaseRank[current] {
		return fmt.Errorf("set phase: %s -> %s: %w", current, phase, ErrInvalidTransition)
	}

	_, err = db.Exec(`UPDATE sessions SET phase = ? WHERE id = ?`, phase, sessionID)
	if err != nil {
		return fmt.Errorf("set phase: %w", err)
	}
	return nil
}

// AppendLog appends an entry to the active session's activity log.
func (db *DB) AppendLog(sessionID int64, entry string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO session_log (session_id, entry, created_at) VALUES (?, ?, ?)
	`, sessionID, entry, now)
	if err != nil {
		return fmt.Errorf("append log: %w", err)
	}
	return nil
}

// LogEntries returns a session's activity log in insertion order.
func (db *DB) LogEntries(sessionID int64) ([]LogEntry, error) {
	rows, err := db.Query(`
		SELECT id, session_id, entry, created_at
		FROM session_log WHERE session_id = ? ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("log entries: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Entry, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// AddGoal appends a goal to the session's goal list.
func (db *DB) AddGoal(sessionID int64, text string) (*Goal, error) {
	var next int
	err := db.QueryRow(`
		SELECT COALESCE(MAX(position), -1) + 1 FROM session_goals WHERE session_id = ?
	`, sessionID).Scan(&next)
	if err != nil {
		return nil, fmt.Errorf("next goal position: %w", err)
	}

	result, err := db.Exec(`
		INSERT INTO session_goals (session_id, position, text, done) VALUES (?, ?, ?, 0)
	`, sessionID, next, text)
	if err != nil {
		return nil, fmt.Errorf("insert goal: %w", err)
	}
	id, _ := result.LastInsertId()
	return &Goal{ID: id, SessionID: sessionID, Position: next, Text: text}, nil
}

// SetGoalDone updates the done flag of the goal at the given position.
func (db *DB) SetGoalDone(sessionID int64, position int, done bool) error {
	result, err := db.Exec(`
		UPDATE session_goals SET done = ? WHERE session_id = ? AND position = ?
	`, done, sessionID, position)
	if err != nil {
		return fmt.Errorf("set goal done: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("no goal at position %d for session %d", position, sessionID)
	}
	return nil
}

// Goals returns a session's goals in list order.
func (db *DB) Goals(sessionID int64) ([]Goal, error) {
	rows, err := db.Query(`
		SELECT id, session_id, position, text, done
		FROM session_goals WHERE session_id = ? ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.SessionID, &g.Position, &g.Text, &g.Done); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// ArchiveSession archives the given session under a timestamped key and
// creates its replacement in a single transaction, carrying the phase
// forward and seeding the new goal list from the carried goals. There is
// never a window with no active session.
func (db *DB) ArchiveSession(sessionID int64, summary string, carryGoals []Goal) (*Session, error) {
	now := time.Now().UnixMilli()
	archiveKey := fmt.Sprintf("session-%s-%d", time.UnixMilli(now).UTC().Format("20060102T150405"), sessionID)

	var phase string
	err := db.QueryRow(`SELECT phase FROM sessions WHERE id = ? AND status = 'active'`, sessionID).Scan(&phase)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("archive session: no active session %d", sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("archive session: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("archive session: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE sessions SET status = 'archived', archive_key = ?, summary = ?, archived_at = ?
		WHERE id = ? AND status = 'active'
	`, archiveKey, summary, now, sessionID)
	if err != nil {
		return nil, fmt.Errorf("archive session: %w", err)
	}

	result, err := tx.Exec(`
		INSERT INTO sessions (phase, status, started_at) VALUES (?, 'active', ?)
	`, phase, now)
	if err != nil {
		return nil, fmt.Errorf("archive session: create replacement: %w", err)
	}
	newID, _ := result.LastInsertId()

	for i, g := range carryGoals {
		_, err = tx.Exec(`
			INSERT INTO session_goals (session_id, position, text, done) VALUES (?, ?, ?, 0)
		`, newID, i, g.Text)
		if err != nil {
			return nil, fmt.Errorf("archive session: carry goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("archive session: commit: %w", err)
	}

	return &Session{ID: newID, Phase: phase, Status: "active", StartedAt: now}, nil
}

// ArchivedSessions returns archived sessions, most recent first.
func (db *DB) ArchivedSessions() ([]Session, error) {
	rows, err := db.Query(`
		SELECT id, phase, status, archive_key, summary, started_at, archived_at
		FROM sessions WHERE status = 'archived' ORDER BY archived_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("archived sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.Phase, &s.Status, &s.ArchiveKey, &s.Summary, &s.StartedAt, &s.ArchivedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// CountArchived returns the number of archived sessions.
func (db *DB) CountArchived() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sessions WHERE status = 'archived'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count archived: %w", err)
	}
	return n, nil
}
