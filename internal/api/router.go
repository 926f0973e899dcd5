// Package api provides the REST API for roast-service.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"roast/internal/config"
	"roast/pkg/persona"
	"roast/pkg/report"
	"roast/pkg/roast"
)

// RoastRequest asks the service to run a roast.
type RoastRequest struct {
	Topic      string `json:"topic"`
	URL        string `json:"url,omitempty"`
	ImagePath  string `json:"image_path,omitempty"`
	Focus      string `json:"focus,omitempty"`
	Iterations int    `json:"iterations,omitempty"`
	FixMode    string `json:"fix_mode,omitempty"`
}

// Runner executes roast runs on behalf of the API.
type Runner interface {
	Roast(ctx context.Context, req RoastRequest) (*roast.RunResult, error)
}

// Server represents the API server.
type Server struct {
	cfg      *config.Config
	router   chi.Router
	registry *persona.Registry
	workdir  *report.Workdir
	runner   Runner
}

// NewServer creates a new API server.
func NewServer(cfg *config.Config, registry *persona.Registry, workdir *report.Workdir, runner Runner) *Server {
	s := &Server{
		cfg:      cfg,
		registry: registry,
		workdir:  workdir,
		runner:   runner,
	}

	s.setupRouter()
	return s
}

// setupRouter configures all routes.
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Optional API key authentication
	if s.cfg.API.APIKey != "" {
		r.Use(s.apiKeyAuth)
	}

	// Health and version endpoints (no auth)
	r.Get("/health", s.handleHealth)
	r.Get("/version", s.handleVersion)

	r.Route("/personas", func(r chi.Router) {
		r.Get("/", s.handleListPersonas)
		r.Get("/{id}", s.handleGetPersona)
	})

	r.Route("/roasts", func(r chi.Router) {
		r.Post("/", s.handleRoast)
	})

	r.Route("/reports", func(r chi.Router) {
		r.Get("/", s.handleListReports)
		r.Get("/{topic}/{iteration}", s.handleGetReport)
	})

	s.router = r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// apiKeyAuth is middleware that validates API key.
func (s *Server) apiKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health and version
		if r.URL.Path == "/health" || r.URL.Path == "/version" {
			next.ServeHTTP(w, r)
			return
		}

		// Check API key header
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			apiKey = r.URL.Query().Get("api_key")
		}

		if apiKey != s.cfg.API.APIKey {
			writeError(w, http.StatusUnauthorized, "Invalid or missing API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
