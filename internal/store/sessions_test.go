package store

import (
	"errors"
	"testing"
)

func TestCreateAndActiveSession(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	// No active session in a fresh store
	s, err := db.ActiveSession()
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil active session, got %+v", s)
	}

	created, err := db.CreateSession(PhaseInitial)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.Phase != PhaseInitial {
		t.Errorf("Phase = %q, want %q", created.Phase, PhaseInitial)
	}
	if created.Status != "active" {
		t.Errorf("Status = %q, want active", created.Status)
	}

	s, err = db.ActiveSession()
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if s == nil || s.ID != created.ID {
		t.Errorf("active session = %+v, want id %d", s, created.ID)
	}
}

func TestCreateSessionUnknownPhase(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if _, err := db.CreateSession("daydreaming"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestSetPhaseMonotonic(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	s, _ := db.CreateSession(PhaseInitial)

	if err := db.SetPhase(s.ID, PhaseBuilding); err != nil {
		t.Fatalf("SetPhase forward: %v", err)
	}

	// Same phase is allowed
	if err := db.SetPhase(s.ID, PhaseBuilding); err != nil {
		t.Errorf("SetPhase same: %v", err)
	}

	// Backwards is rejected
	err = db.SetPhase(s.ID, PhasePlanning)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("SetPhase backwards err = %v, want ErrInvalidTransition", err)
	}

	active, _ := db.ActiveSession()
	if active.Phase != PhaseBuilding {
		t.Errorf("Phase = %q, want %q after rejected downgrade", active.Phase, PhaseBuilding)
	}
}

func TestGoalsAndLog(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	s, _ := db.CreateSession(PhaseInitial)

	if _, err := db.AddGoal(s.ID, "read chapter 3"); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if _, err := db.AddGoal(s.ID, "write exercises"); err != nil {
		t.Fatalf("AddGoal: %v", err)
	}
	if err := db.SetGoalDone(s.ID, 0, true); err != nil {
		t.Fatalf("SetGoalDone: %v", err)
	}

	goals, err := db.Goals(s.ID)
	if err != nil {
		t.Fatalf("Goals: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("got %d goals, want 2", len(goals))
	}
	if !goals[0].Done || goals[1].Done {
		t.Errorf("done flags = %v/%v, want true/false", goals[0].Done, goals[1].Done)
	}
	if goals[0].Text != "read chapter 3" {
		t.Errorf("goal order wrong: first = %q", goals[0].Text)
	}

	if err := db.SetGoalDone(s.ID, 9, true); err == nil {
		t.Error("expected error for missing goal position")
	}

	db.AppendLog(s.ID, "first")
	db.AppendLog(s.ID, "second")
	entries, err := db.LogEntries(s.ID)
	if err != nil {
		t.Fatalf("LogEntries: %v", err)
	}
	if len(entries) != 2 || entries[0].Entry != "first" {
		t.Errorf("log entries = %+v, want [first second] in order", entries)
	}
}

func TestArchiveSession(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	s, _ := db.CreateSession(PhaseBuilding)
	db.AddGoal(s.ID, "finish parser")
	db.AddGoal(s.ID, "start tests")
	goals, _ := db.Goals(s.ID)

	fresh, err := db.ArchiveSession(s.ID, "2 log entries, 0/2 goals done", goals)
	if err != nil {
		t.Fatalf("ArchiveSession: %v", err)
	}

	// Phase carries forward; the log does not
	if fresh.Phase != PhaseBuilding {
		t.Errorf("new phase = %q, want %q", fresh.Phase, PhaseBuilding)
	}
	if fresh.ID == s.ID {
		t.Error("replacement session should be a new record")
	}
	entries, _ := db.LogEntries(fresh.ID)
	if len(entries) != 0 {
		t.Errorf("new session log has %d entries, want 0", len(entries))
	}

	// Carried goals arrive not-done
	carried, _ := db.Goals(fresh.ID)
	if len(carried) != 2 {
		t.Fatalf("carried %d goals, want 2", len(carried))
	}
	for _, g := range carried {
		if g.Done {
			t.Errorf("carried goal %q arrived done", g.Text)
		}
	}

	// Exactly one active session at all times
	active, err := db.ActiveSession()
	if err != nil {
		t.Fatalf("ActiveSession: %v", err)
	}
	if active == nil || active.ID != fresh.ID {
		t.Errorf("active = %+v, want id %d", active, fresh.ID)
	}

	archived, err := db.ArchivedSessions()
	if err != nil {
		t.Fatalf("ArchivedSessions: %v", err)
	}
	if len(archived) != 1 {
		t.Fatalf("got %d archived, want 1", len(archived))
	}
	if archived[0].ArchiveKey == nil || *archived[0].ArchiveKey == "" {
		t.Error("archived session has no archive key")
	}
	if archived[0].Summary == nil || *archived[0].Summary == "" {
		t.Error("archived session has no summary")
	}
}

func TestArchiveCountNeverDecreases(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	prev := 0
	for i := 0; i < 4; i++ {
		active, _ := db.ActiveSession()
		if active == nil {
			active, _ = db.CreateSession(PhaseInitial)
		}
		if _, err := db.ArchiveSession(active.ID, "", nil); err != nil {
			t.Fatalf("ArchiveSession %d: %v", i, err)
		}

		n, err := db.CountArchived()
		if err != nil {
			t.Fatalf("CountArchived: %v", err)
		}
		if n <= prev {
			t.Errorf("archive count %d did not grow past %d", n, prev)
		}
		prev = n
	}
}

func TestArchiveSessionNoActive(t *testing.T) {
	db, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	defer db.Close()

	if _, err := db.ArchiveSession(42, "", nil); err == nil {
		t.Error("expected error archiving nonexistent session")
	}
}
