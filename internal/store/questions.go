package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Question is an open question raised during a session. It transitions
// pending -> resolved exactly once and is never re-opened; a follow-up
// becomes a new question.
type Question struct {
	ID         string
	Text       string
	Status     string
	Resolution *string
	CreatedAt  int64
	ResolvedAt *int64
}

// AddQuestion records a new pending question.
func (db *DB) AddQuestion(id, text string) (*Question, error) {
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM questions WHERE id = ?`, id).Scan(&count); err != nil {
		return nil, fmt.Errorf("check question: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("question %s already recorded: %w", id, ErrInvalidTransition)
	}

	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO questions (id, text, status, created_at) VALUES (?, ?, 'pending', ?)
	`, id, text, now)
	if err != nil {
		return nil, fmt.Errorf("add question: %w", err)
	}
	return &Question{ID: id, Text: text, Status: "pending", CreatedAt: now}, nil
}

// ResolveQuestion transitions a question from pending to resolved. Resolving
// a question that is not pending returns ErrInvalidTransition.
func (db *DB) ResolveQuestion(id, resolution string) error {
	now := time.Now().UnixMilli()
	result, err := db.Exec(`
		UPDATE questions SET status = 'resolved', resolution = ?, resolved_at = ?
		WHERE id = ? AND status = 'pending'
	`, resolution, now, id)
	if err != nil {
		return fmt.Errorf("resolve question: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("question %s is not pending: %w", id, ErrInvalidTransition)
	}
	return nil
}

// GetQuestion returns a question by id, or nil if unknown.
func (db *DB) GetQuestion(id string) (*Question, error) {
	var q Question
	err := db.QueryRow(`
		SELECT id, text, status, resolution, created_at, resolved_at
		FROM questions WHERE id = ?
	`, id).Scan(&q.ID, &q.Text, &q.Status, &q.Resolution, &q.CreatedAt, &q.ResolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &q, nil
}

// OpenQuestions returns pending questions, oldest first.
func (db *DB) OpenQuestions() ([]Question, error) {
	rows, err := db.Query(`
		SELECT id, text, status, resolution, created_at, resolved_at
		FROM questions WHERE status = 'pending' ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("open questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Status, &q.Resolution, &q.CreatedAt, &q.ResolvedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}
