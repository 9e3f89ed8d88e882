package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/recall/internal/controller"
	"github.com/lazypower/recall/internal/store"
)

// Server is the recall loopback HTTP API. It is a thin front on the
// controller: utterances in, results and read-only views out.
type Server struct {
	db      *store.DB
	ctrl    *controller.Controller
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server for the given store and controller.
func New(db *store.DB, ctrl *controller.Controller, version string) *Server {
	s := &Server{
		db:      db,
		ctrl:    ctrl,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/utterances", s.handleUtterance)

		r.Get("/status", s.handleStatus)
		r.Get("/digest", s.handleDigest)
		r.Get("/sessions", s.handleSessions)
		r.Get("/decisions", s.handleDecisions)
		r.Get("/concepts", s.handleConcepts)
		r.Get("/questions", s.handleQuestions)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}
