package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Question answering
	mux.HandleFunc("/api/ask", s.app.AskHandler.AskHandler) // POST - ask a question

	// API routes - Index management
	mux.HandleFunc("/api/index/build", s.app.IndexHandler.BuildHandler)   // POST - trigger async build
	mux.HandleFunc("/api/index/status", s.app.IndexHandler.StatusHandler) // GET - per-kind index state

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)
	mux.HandleFunc("/api/version", s.app.StatusHandler.VersionHandler)

	return mux
}
