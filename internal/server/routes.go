package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Generation
	mux.HandleFunc("POST /api/generate", s.app.GenerationHandler.Generate)
	mux.HandleFunc("POST /api/generate-async", s.app.GenerationHandler.GenerateAsync)
	mux.HandleFunc("POST /api/generate-from-file-async", s.app.GenerationHandler.GenerateFromFileAsync)
	mux.HandleFunc("GET /api/generation/{id}/status", s.app.GenerationHandler.Status)
	mux.HandleFunc("GET /api/generation/{id}/result", s.app.GenerationHandler.Result)
	mux.HandleFunc("GET /api/generation/{id}/ws", s.app.WSHandler.Stream)
	mux.HandleFunc("GET /api/generations", s.app.GenerationHandler.List)
	mux.HandleFunc("GET /api/generations/active", s.app.GenerationHandler.ListActive)

	// API routes - System
	mux.HandleFunc("GET /api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("GET /api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}
