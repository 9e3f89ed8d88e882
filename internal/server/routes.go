package server

import (
	"encoding/json"
	"net/http"

	"github.com/lazypower/recall/internal/store"
)

func (s *Server) handleUtterance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Text == "" {
		http.Error(w, `{"error":"text required"}`, http.StatusBadRequest)
		return
	}

	// Controller.Handle serializes internally — one interaction at a time.
	res, err := s.ctrl.Handle(req.Text)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"effect":  res.Effect,
		"message": res.Message,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.db.GetStatus()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status == nil {
		json.NewEncoder(w).Encode(map[string]any{"status": nil})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{
		"phase":           status.Phase,
		"last_session_at": status.LastSessionAt,
		"next_action":     status.NextAction,
		"blockers":        status.Blockers,
	})
}

func (s *Server) handleDigest(w http.ResponseWriter, r *http.Request) {
	digest, err := s.ctrl.BuildDigest()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"rendered":          digest.Render(),
		"open_questions":    len(digest.OpenQuestions),
		"revision_concepts": len(digest.RevisionConcepts),
	})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.db.ArchivedSessions()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type sessionView struct {
		ArchiveKey string `json:"archive_key"`
		Phase      string `json:"phase"`
		Summary    string `json:"summary"`
		StartedAt  int64  `json:"started_at"`
		ArchivedAt int64  `json:"archived_at"`
	}
	views := make([]sessionView, 0, len(sessions))
	for _, sess := range sessions {
		v := sessionView{Phase: sess.Phase, StartedAt: sess.StartedAt}
		if sess.ArchiveKey != nil {
			v.ArchiveKey = *sess.ArchiveKey
		}
		if sess.Summary != nil {
			v.Summary = *sess.Summary
		}
		if sess.ArchivedAt != nil {
			v.ArchivedAt = *sess.ArchivedAt
		}
		views = append(views, v)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sessions": views})
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	decisions, err := s.db.Decisions()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type decisionView struct {
		ID          string `json:"id"`
		Description string `json:"description"`
		Rationale   string `json:"rationale"`
		CreatedAt   int64  `json:"created_at"`
	}
	views := make([]decisionView, 0, len(decisions))
	for _, d := range decisions {
		views = append(views, decisionView{d.ID, d.Description, d.Rationale, d.CreatedAt})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"decisions": views})
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	var (
		concepts []store.Concept
		err      error
	)
	if category := r.URL.Query().Get("category"); category != "" {
		concepts, err = s.db.ListConceptsByCategory(category)
	} else {
		difficulty := r.URL.Query().Get("difficulty")
		if difficulty == "" {
			difficulty = store.DifficultyRevision
		}
		concepts, err = s.db.ListConceptsByDifficulty(difficulty)
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type conceptView struct {
		ID          string `json:"id"`
		Category    string `json:"category"`
		Difficulty  string `json:"difficulty"`
		LastUpdated int64  `json:"last_updated"`
	}
	views := make([]conceptView, 0, len(concepts))
	for _, c := range concepts {
		views = append(views, conceptView{c.ID, c.Category, c.Difficulty, c.LastUpdated})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"concepts": views})
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := s.db.OpenQuestions()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	type questionView struct {
		ID        string `json:"id"`
		Text      string `json:"text"`
		CreatedAt int64  `json:"created_at"`
	}
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, questionView{q.ID, q.Text, q.CreatedAt})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"questions": views})
}
