package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lazypower/recall/internal/controller"
	"github.com/lazypower/recall/internal/store"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(db, controller.New(db, nil), "test")
}

func post(t *testing.T, srv *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func say(t *testing.T, srv *Server, text string) map[string]any {
	t.Helper()
	w := post(t, srv, "/api/utterances", `{"text":`+jsonStr(text)+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("say(%q) status = %d; body: %s", text, w.Code, w.Body.String())
	}
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func jsonStr(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestHealth(t *testing.T) {
	srv := testServer(t)

	w := get(t, srv, "/api/health")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["db"] != true {
		t.Errorf("db = %v, want true", resp["db"])
	}
}

func TestUtteranceFlow(t *testing.T) {
	srv := testServer(t)

	resp := say(t, srv, "hello")
	if resp["effect"] != string(controller.EffectSessionUpdated) {
		t.Errorf("effect = %v, want session_updated", resp["effect"])
	}

	say(t, srv, "save this")
	resp = say(t, srv, "approved: use X over Y because Z")
	if resp["effect"] != string(controller.EffectRecordCreated) {
		t.Errorf("effect = %v, want record_created; message: %v", resp["effect"], resp["message"])
	}

	// The decision shows up in the read-only view
	w := get(t, srv, "/api/decisions")
	if w.Code != http.StatusOK {
		t.Fatalf("decisions status = %d", w.Code)
	}
	var list struct {
		Decisions []struct {
			Description string `json:"description"`
			Rationale   string `json:"rationale"`
		} `json:"decisions"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Decisions) != 1 {
		t.Fatalf("got %d decisions, want 1", len(list.Decisions))
	}
	if list.Decisions[0].Description != "use X over Y" {
		t.Errorf("description = %q", list.Decisions[0].Description)
	}
}

func TestUtteranceDenied(t *testing.T) {
	srv := testServer(t)
	say(t, srv, "hello")

	resp := say(t, srv, "approved: something risky")
	if resp["effect"] != string(controller.EffectDenied) {
		t.Errorf("effect = %v, want denied", resp["effect"])
	}

	w := get(t, srv, "/api/decisions")
	var list struct {
		Decisions []any `json:"decisions"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Decisions) != 0 {
		t.Errorf("denied mutation reached the store: %d decisions", len(list.Decisions))
	}
}

func TestUtteranceValidation(t *testing.T) {
	srv := testServer(t)

	if w := post(t, srv, "/api/utterances", `{}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty text status = %d, want 400", w.Code)
	}
	if w := post(t, srv, "/api/utterances", `not json`); w.Code != http.StatusBadRequest {
		t.Errorf("bad json status = %d, want 400", w.Code)
	}
}

func TestSessionsViewAfterEnd(t *testing.T) {
	srv := testServer(t)
	say(t, srv, "hello")
	say(t, srv, "goal: finish something")
	say(t, srv, "bye")

	w := get(t, srv, "/api/sessions")
	if w.Code != http.StatusOK {
		t.Fatalf("sessions status = %d", w.Code)
	}
	var list struct {
		Sessions []struct {
			ArchiveKey string `json:"archive_key"`
			Summary    string `json:"summary"`
		} `json:"sessions"`
	}
	json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Sessions) != 1 {
		t.Fatalf("got %d archived sessions, want 1", len(list.Sessions))
	}
	if list.Sessions[0].ArchiveKey == "" {
		t.Error("archived session missing archive key")
	}
}

func TestQuestionsAndConceptsViews(t *testing.T) {
	srv := testServer(t)
	say(t, srv, "hello")
	say(t, srv, "I don't understand recursion")
	say(t, srv, "yes")
	say(t, srv, "question: is this tail recursive")

	w := get(t, srv, "/api/questions")
	var qs struct {
		Questions []any `json:"questions"`
	}
	json.Unmarshal(w.Body.Bytes(), &qs)
	if len(qs.Questions) != 1 {
		t.Errorf("got %d questions, want 1", len(qs.Questions))
	}

	w = get(t, srv, "/api/concepts?difficulty=revision")
	var cs struct {
		Concepts []struct {
			ID string `json:"id"`
		} `json:"concepts"`
	}
	json.Unmarshal(w.Body.Bytes(), &cs)
	if len(cs.Concepts) != 1 || cs.Concepts[0].ID != "recursion" {
		t.Errorf("concepts = %+v", cs.Concepts)
	}

	w = get(t, srv, "/api/digest")
	var dg map[string]any
	json.Unmarshal(w.Body.Bytes(), &dg)
	if dg["open_questions"].(float64) != 1 {
		t.Errorf("digest open_questions = %v", dg["open_questions"])
	}
}
