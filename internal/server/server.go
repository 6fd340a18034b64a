package server

import (
	"encoding/json"
	"log"
	"net/http"
	"slices"
	"strings"

	"hivetrace/internal/engine"
)

// Server exposes the engine's reports over a small JSON API. It owns no
// state of its own: every request recomputes from the raw logs.
type Server struct {
	engine *engine.Engine
	port   string
}

// New creates a new dashboard API server.
func New(eng *engine.Engine, port string) *Server {
	return &Server{engine: eng, port: port}
}

// Start starts the HTTP server and blocks.
func (s *Server) Start() error {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/services", s.handleServices)
	mux.HandleFunc("/api/v1/report/", s.handleReport)
	mux.HandleFunc("/healthz", s.handleHealth)

	log.Printf("[DASHBOARD] Starting on %s", s.port)
	return http.ListenAndServe(s.port, mux)
}

// handleServices returns the configured honeypot services.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Services())
}

// handleReport recomputes and returns the report for one service.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	service := strings.TrimPrefix(r.URL.Path, "/api/v1/report/")
	if service == "" || !slices.Contains(s.engine.Services(), service) {
		http.Error(w, "unknown service", http.StatusNotFound)
		return
	}

	rep := s.engine.Parse(r.Context(), service)
	writeJSON(w, rep)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[DASHBOARD] failed to encode response: %v", err)
	}
}
