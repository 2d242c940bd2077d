package api

import (
	"navigation-session-service/internal/api/handlers"
	"navigation-session-service/internal/services"
	"net/http"

	"go.uber.org/zap"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// Handlers only see the session manager, never concrete adapters.
func NewRouter(mgr *services.Manager, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	sessions := &handlers.SessionHandler{Manager: mgr}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/sessions", sessions.Create)
	mux.HandleFunc("/sessions/{id}", sessions.Session)
	mux.HandleFunc("/sessions/{id}/permissions", sessions.Permissions)
	mux.HandleFunc("/sessions/{id}/locations", sessions.Locations)
	mux.HandleFunc("/sessions/{id}/taps", sessions.Taps)
	mux.HandleFunc("/sessions/{id}/map", sessions.Map)
	mux.HandleFunc("/places/selections", handlers.PlaceSelection)

	return requestIDMiddleware(logger, loggingMiddleware(mux))
}
