package store

import (
	"errors"
	"testing"
)

func TestAddDecisionAppendOnly(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	d, err := db.AddDecision("dec-1", "use X over Y", "because Z")
	if err != nil {
		t.Fatalf("AddDecision: %v", err)
	}
	if d.Description != "use X over Y" || d.Rationale != "because Z" {
		t.Errorf("decision = %+v", d)
	}

	// Second put on the same key is always rejected
	_, err = db.AddDecision("dec-1", "changed my mind", "")
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}

	decisions, err := db.Decisions()
	if err != nil {
		t.Fatalf("Decisions: %v", err)
	}
	if len(decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(decisions))
	}
	if decisions[0].Description != "use X over Y" {
		t.Errorf("original decision was altered: %+v", decisions[0])
	}
}

func TestQuestionResolveOnce(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	q, err := db.AddQuestion("q-1", "why does WAL need checkpoints?")
	if err != nil {
		t.Fatalf("AddQuestion: %v", err)
	}
	if q.Status != "pending" {
		t.Errorf("Status = %q, want pending", q.Status)
	}

	if _, err := db.AddQuestion("q-1", "dup"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("duplicate question err = %v, want ErrInvalidTransition", err)
	}

	if err := db.ResolveQuestion("q-1", "checkpoints fold the log back"); err != nil {
		t.Fatalf("ResolveQuestion: %v", err)
	}

	got, _ := db.GetQuestion("q-1")
	if got.Status != "resolved" {
		t.Errorf("Status = %q, want resolved", got.Status)
	}
	if got.Resolution == nil || *got.Resolution == "" {
		t.Error("resolution not stored")
	}

	// Never re-opened, never re-resolved
	if err := db.ResolveQuestion("q-1", "again"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("re-resolve err = %v, want ErrInvalidTransition", err)
	}

	open, _ := db.OpenQuestions()
	if len(open) != 0 {
		t.Errorf("got %d open questions, want 0", len(open))
	}
}

func TestStatusOverwrite(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	s, err := db.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil status in fresh store, got %+v", s)
	}

	if err := db.PutStatus(Status{Phase: PhaseInitial, NextAction: "read intro"}); err != nil {
		t.Fatalf("PutStatus: %v", err)
	}
	if err := db.PutStatus(Status{Phase: PhaseBuilding, NextAction: "write code", Blockers: []string{"waiting on review"}}); err != nil {
		t.Fatalf("PutStatus overwrite: %v", err)
	}

	s, err = db.GetStatus()
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if s.Phase != PhaseBuilding || s.NextAction != "write code" {
		t.Errorf("status = %+v, want latest projection only", s)
	}
	if len(s.Blockers) != 1 || s.Blockers[0] != "waiting on review" {
		t.Errorf("blockers = %v", s.Blockers)
	}
}

func TestConceptPutAndLists(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if _, err := db.PutConcept(Concept{
		ID:         "recursion",
		Category:   CategoryCore,
		Difficulty: DifficultyUnreviewed,
		Content:    "a function calling itself",
	}); err != nil {
		t.Fatalf("PutConcept: %v", err)
	}

	c, err := db.GetConcept("recursion")
	if err != nil {
		t.Fatalf("GetConcept: %v", err)
	}
	if c == nil || c.Content != "a function calling itself" {
		t.Fatalf("concept = %+v", c)
	}

	if err := db.SetConceptDifficulty("recursion", DifficultyRevision); err != nil {
		t.Fatalf("SetConceptDifficulty: %v", err)
	}
	// Category moves independently of difficulty
	if err := db.SetConceptCategory("recursion", CategoryRevision); err != nil {
		t.Fatalf("SetConceptCategory: %v", err)
	}

	c, _ = db.GetConcept("recursion")
	if c.Difficulty != DifficultyRevision || c.Category != CategoryRevision {
		t.Errorf("concept = %+v", c)
	}

	byCat, err := db.ListConceptsByCategory(CategoryRevision)
	if err != nil {
		t.Fatalf("ListConceptsByCategory: %v", err)
	}
	if len(byCat) != 1 {
		t.Errorf("got %d concepts in revision category, want 1", len(byCat))
	}

	byDiff, err := db.ListConceptsByDifficulty(DifficultyRevision)
	if err != nil {
		t.Fatalf("ListConceptsByDifficulty: %v", err)
	}
	if len(byDiff) != 1 {
		t.Errorf("got %d concepts at revision difficulty, want 1", len(byDiff))
	}

	if c, _ := db.GetConcept("nonexistent"); c != nil {
		t.Errorf("expected nil for unknown concept, got %+v", c)
	}
}

func TestNewIDUnique(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := db.NewID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}
